package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddOrIncrement(t *testing.T) {
	s := New()
	s.AddOrIncrement(GraphSize, 3)
	s.AddOrIncrement(GraphSize, 2)
	s.AddOrIncrement(AnnotationSize, 1)

	assert.Equal(t, int64(5), s.Get(GraphSize))
	assert.Equal(t, int64(1), s.Get(AnnotationSize))
	assert.Equal(t, int64(0), s.Get("missing"))
	assert.Equal(t, map[string]int64{GraphSize: 5, AnnotationSize: 1}, s.Snapshot())
}

func TestConcurrentIncrements(t *testing.T) {
	s := New()
	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddOrIncrement(SubTasks, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), s.Get(SubTasks))
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.AddOrIncrement(GraphSize, 1)
	})
}
