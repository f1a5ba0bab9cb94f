// Package scenario replays scripted sequences of coordination calls against
// a Coordinator and checks their results.
//
// A scenario is a YAML document:
//
//	name: lock hand-off
//	steps:
//	  - op: lock.create
//	    lock: 1
//	    strategy: adaptive
//	  - op: lock.try_acquire
//	    at: 0
//	    lock: 1
//	    requester: 1
//	    expect: true
//
// Every step carries the tick it runs at; ticks must not decrease. A step
// with an expect value fails the run when its result, printed with
// fmt.Sprint, differs.
package scenario

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	coorderr "kcoord/pkg/error"
)

// Scenario is a named list of steps.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one call. Only the fields its op reads need to be set.
type Step struct {
	Op string `yaml:"op"`
	At uint64 `yaml:"at"`

	Address   uint64   `yaml:"address"`
	To        uint64   `yaml:"to"`
	Expected  uint32   `yaml:"expected"`
	Bitset    *uint32  `yaml:"bitset"`
	// Count defaults to 1.
	Count     *int     `yaml:"count"`
	Requeue   int      `yaml:"requeue"`
	Addresses []uint64 `yaml:"addresses"`

	Requester uint64 `yaml:"requester"`
	Lock      uint64 `yaml:"lock"`
	Strategy  string `yaml:"strategy"`

	Resource uint64 `yaml:"resource"`
	Policy   string `yaml:"policy"`
	Priority uint32 `yaml:"priority"`
	Weight   uint32 `yaml:"weight"`
	Deadline uint64 `yaml:"deadline"`

	Group    uint64 `yaml:"group"`
	Kind     string `yaml:"kind"`
	Required uint32 `yaml:"required"`
	Timeout  uint64 `yaml:"timeout"`
	Result   int64  `yaml:"result"`

	Expect any `yaml:"expect"`
}

// Parse decodes and validates a scenario.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		ce := coorderr.Wrap(err, coorderr.CodeScenarioParse, "Parse", "scenario")
		ce.Category = coorderr.ErrCategoryData
		return nil, ce
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile parses the scenario at path. An unnamed scenario is named after
// the file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, coorderr.Wrap(err, coorderr.CodeScenarioParse, "LoadFile", "scenario").
			WithDetail("cannot open %s", path)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, coorderr.Wrap(err, coorderr.CodeScenarioParse, "LoadFile", "scenario").
			WithDetail("%s", path)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

func (s *Scenario) validate() error {
	var last uint64
	for i, step := range s.Steps {
		if _, ok := handlers[step.Op]; !ok {
			return coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeScenarioUnknownOp,
				"step %d: unknown op %q", i+1, step.Op)
		}
		if step.At < last {
			return coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeScenarioParse,
				"step %d: tick %d is earlier than %d", i+1, step.At, last)
		}
		last = step.At
	}
	return nil
}

func (st Step) count() int {
	if st.Count == nil {
		return 1
	}
	return *st.Count
}
