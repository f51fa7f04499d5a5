package problem

import (
	"github.com/cottand/qinfer/model"
	"github.com/cottand/qinfer/stats"
	"github.com/cottand/qinfer/strategy"
	"gopkg.in/yaml.v3"
)

// Report is the YAML rendering of a Result
type Report struct {
	Satisfiable   bool             `yaml:"satisfiable"`
	Solution      map[int]string   `yaml:"solution,omitempty"`
	Unsatisfiable []string         `yaml:"unsatisfiable,omitempty"`
	Statistics    map[string]int64 `yaml:"statistics,omitempty"`
}

// NewReport renders result. statistics may be nil.
func NewReport(result *strategy.Result, statistics *stats.Statistics) Report {
	r := Report{Satisfiable: result.HasSolution()}
	if r.Satisfiable {
		r.Solution = make(map[int]string, result.Len())
		for id, q := range result.Solution() {
			r.Solution[id] = q.String()
		}
	} else {
		for _, c := range result.Unsatisfiable() {
			r.Unsatisfiable = append(r.Unsatisfiable, c.String())
		}
	}
	if statistics != nil {
		r.Statistics = statistics.Snapshot()
	}
	return r
}

func (r Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Qualifier returns the qualifier inferred for slot id, parsed back from the report
func (r Report) Qualifier(id int) (model.Qualifier, bool) {
	s, ok := r.Solution[id]
	if !ok {
		return nil, false
	}
	q, err := ParseQualifier(s)
	if err != nil {
		return nil, false
	}
	return q, true
}
