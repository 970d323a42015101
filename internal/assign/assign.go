// Package assign walks a taxonomy, hands out sequential ids and encodes one
// code per error.
//
// Traversal order is the output order: for every module in declaration order,
// its direct errors come first (submodule id 0), then each submodule's errors
// in declaration order. Module ids come from one counter per call, submodule
// ids from a counter reset per module and error ids from a counter reset per
// (module, submodule) scope. All counters are locals of a single Assign call.
package assign

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"ecgen/internal/codec"
	"ecgen/internal/taxonomy"
)

// Sequence describes how ids are handed out within one scope.
//
// Ids are 1-based. A zero Start or Step selects the default of 1, so id 0 is
// never handed out: submodule id 0 marks errors declared on the module
// itself, and an all-zero code would read as success.
type Sequence struct {
	Start int
	Step  int
}

func (s Sequence) normalized() Sequence {
	if s.Start == 0 {
		s.Start = 1
	}
	if s.Step == 0 {
		s.Step = 1
	}
	return s
}

// Options tune the assigner. The zero value is the default behaviour:
// codec.DefaultLayout and every sequence starting at 1 with step 1.
type Options struct {
	Layout       codec.Layout
	ModuleIDs    Sequence
	SubmoduleIDs Sequence
	ErrorIDs     Sequence
}

var errBadSequence = errors.New("invalid id sequence")

func (o Options) normalized() (Options, error) {
	if o.Layout == (codec.Layout{}) {
		o.Layout = codec.DefaultLayout
	}
	if err := o.Layout.Validate(); err != nil {
		return Options{}, err
	}
	seqs := []struct {
		name string
		seq  *Sequence
	}{
		{"module", &o.ModuleIDs},
		{"submodule", &o.SubmoduleIDs},
		{"error", &o.ErrorIDs},
	}
	for _, s := range seqs {
		*s.seq = s.seq.normalized()
		if s.seq.Start < 0 || s.seq.Step < 0 {
			return Options{}, fmt.Errorf("%w: %s ids start=%d step=%d", errBadSequence, s.name, s.seq.Start, s.seq.Step)
		}
	}
	return o, nil
}

// Assign resolves every error of tax into a Record. It is all-or-nothing:
// the first encoding overflow aborts the walk and no result is returned.
// Calls with equal input produce equal results.
func Assign(tax *taxonomy.Taxonomy, opts Options) (*Result, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	w := walker{
		opts:    opts,
		records: make([]Record, 0, tax.ErrorCount()),
	}
	moduleID := opts.ModuleIDs.Start
	for i := range tax.Modules {
		m := &tax.Modules[i]
		if err := w.node(m.Name, moduleID, 0, m); err != nil {
			return nil, err
		}
		submoduleID := opts.SubmoduleIDs.Start
		for j := range m.Submodules {
			// empty submodules still consume an id
			if err := w.node(m.Name, moduleID, submoduleID, &m.Submodules[j]); err != nil {
				return nil, err
			}
			submoduleID += opts.SubmoduleIDs.Step
		}
		moduleID += opts.ModuleIDs.Step
	}

	return &Result{
		Layout:     opts.Layout,
		Records:    w.records,
		MaxNameLen: w.maxName,
	}, nil
}

type walker struct {
	opts    Options
	records []Record
	maxName int
}

func (w *walker) node(module string, moduleID, submoduleID int, n taxonomy.Node) error {
	var submodule string
	if _, ok := n.(*taxonomy.Submodule); ok {
		submodule = n.NodeName()
	}
	errorID := w.opts.ErrorIDs.Start
	for _, e := range n.NodeErrors() {
		code, err := w.opts.Layout.Encode(moduleID, submoduleID, errorID)
		if err != nil {
			return &PathError{Module: module, Submodule: submodule, ErrorName: e.Name, Pos: e.Pos, Err: err}
		}
		w.records = append(w.records, Record{
			Module:      module,
			Submodule:   submodule,
			Name:        e.Name,
			Code:        code,
			Description: e.Description,
			ModuleID:    moduleID,
			SubmoduleID: submoduleID,
			ErrorID:     errorID,
		})
		if n := utf8.RuneCountInString(e.Name); n > w.maxName {
			w.maxName = n
		}
		errorID += w.opts.ErrorIDs.Step
	}
	return nil
}
