package testutil

import (
	"errors"
	"sync"

	"github.com/roach88/ifcpset/internal/model"
)

// ErrHostFault is the fault FaultyElement reports.
var ErrHostFault = errors.New("host data access fault")

// FaultyElement wraps an element and fails reads of selected parameters.
//
// Names listed in Fail fault on Param and BuiltIn. With FailAll set every
// read faults, which makes it a source that must never be probed.
// Every probe is recorded whether or not it faults.
type FaultyElement struct {
	model.Element
	Fail    map[string]bool
	FailAll bool

	mu     sync.Mutex
	probes []string
}

// NewFaultyElement wraps e and faults on the named parameters.
func NewFaultyElement(e model.Element, names ...string) *FaultyElement {
	fail := make(map[string]bool, len(names))
	for _, n := range names {
		fail[n] = true
	}
	return &FaultyElement{Element: e, Fail: fail}
}

// Param implements model.Element.
func (f *FaultyElement) Param(name string) (any, bool, error) {
	if f.record(name) {
		return nil, false, ErrHostFault
	}
	return f.Element.Param(name)
}

// BuiltIn implements model.Element.
func (f *FaultyElement) BuiltIn(id string) (any, bool, error) {
	if f.record(id) {
		return nil, false, ErrHostFault
	}
	return f.Element.BuiltIn(id)
}

func (f *FaultyElement) record(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, name)
	return f.FailAll || f.Fail[name]
}

// Probes returns the names read so far, in order.
func (f *FaultyElement) Probes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probes...)
}
