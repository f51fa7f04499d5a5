package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cottand/qinfer/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type logFlags struct {
	level    *int
	format   *string
	sections *[]string
}

func addLogFlags(c *cobra.Command) *logFlags {
	return &logFlags{
		level:    c.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level"),
		format:   c.Flags().String("log-format", "auto", "log format: text, json, or auto (text on terminals)"),
		sections: c.Flags().StringSlice("log-sections", nil, "sections to print debug logs of, * for all"),
	}
}

func (f *logFlags) apply() error {
	log.SetLevel(slog.Level(*f.level))
	if len(*f.sections) > 0 {
		log.EnableSections(*f.sections...)
	}

	var json bool
	switch strings.ToLower(*f.format) {
	case "json":
		json = true
	case "text":
	case "auto":
		fd := os.Stderr.Fd()
		json = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	default:
		return fmt.Errorf("unknown log format %q", *f.format)
	}
	log.SetDefault(slog.New(log.NewHandler(os.Stderr, json)))
	return nil
}
