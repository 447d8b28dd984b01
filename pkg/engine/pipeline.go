package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage is one named middleware in a Pipeline.
type Stage struct {
	// Name identifies the stage for Requires and error messages.
	Name string
	// Requires lists stages that must run before this one.
	Requires []string
	// Wrap returns next wrapped by the stage.
	Wrap func(next http.Handler) http.Handler
}

// Pipeline is an ordered list of stages. The first registered stage is the
// outermost, so it sees the request first.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from stages in request order.
func NewPipeline(stages ...Stage) *Pipeline {
	p := &Pipeline{}
	for _, s := range stages {
		p.Use(s)
	}
	return p
}

// Use appends a stage.
func (p *Pipeline) Use(s Stage) *Pipeline {
	p.stages = append(p.stages, s)
	return p
}

// Names returns the stage names in request order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Then wraps h with every stage. It fails when a stage name is empty or
// repeated, or when a stage requires one that is missing or registered
// after it.
func (p *Pipeline) Then(h http.Handler) (http.Handler, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h, nil
}

func (p *Pipeline) check() error {
	pos := make(map[string]int, len(p.stages))
	for i, s := range p.stages {
		if s.Name == "" {
			return fmt.Errorf("pipeline stage %d has no name", i)
		}
		if s.Wrap == nil {
			return fmt.Errorf("pipeline stage %q has no Wrap func", s.Name)
		}
		if _, dup := pos[s.Name]; dup {
			return fmt.Errorf("pipeline stage %q registered twice", s.Name)
		}
		pos[s.Name] = i
	}

	var errs []error
	for i, s := range p.stages {
		for _, req := range s.Requires {
			at, ok := pos[req]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("stage %q requires %q, which is not registered", s.Name, req))
			case at > i:
				errs = append(errs, fmt.Errorf("stage %q requires %q to run first, but it is registered later", s.Name, req))
			}
		}
	}
	return errors.Join(errs...)
}
