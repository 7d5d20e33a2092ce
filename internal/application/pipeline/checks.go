package pipeline

import "context"

// Check probes one backend the pipeline connected to.
type Check struct {
	name string
	fn   func(ctx context.Context) error
}

func (c Check) Name() string { return c.name }

func (c Check) Check(ctx context.Context) error { return c.fn(ctx) }

func (p *Pipeline) addCheck(name string, fn func(ctx context.Context) error) {
	p.checks = append(p.checks, Check{name: name, fn: fn})
}

// Checks lists a probe for every backend built so far.
func (p *Pipeline) Checks() []Check {
	out := make([]Check, len(p.checks))
	copy(out, p.checks)
	return out
}

//Personal.AI order the ending
