package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/registry"
	"github.com/roach88/ifcpset/internal/schema"
	"github.com/roach88/ifcpset/internal/testutil"
)

func registryOf(t *testing.T, sets ...*schema.SetDescription) *registry.Registry {
	t.Helper()
	cat := registry.NewCatalog()
	cat.Register("test", func(b *registry.Builder) error {
		b.Add("test", sets...)
		return nil
	})
	r, err := cat.Build(registry.Options{Profiles: []string{"test"}})
	require.NoError(t, err)
	return r
}

func newSession(t *testing.T, reg *registry.Registry, opts ...Option) (*Session, *emit.Recorder) {
	t.Helper()
	rec := emit.NewRecorder()
	opts = append([]Option{WithGUIDGenerator(testutil.NewSequentialGUIDs())}, opts...)
	s := NewSession(reg, rec, opts...)
	t.Cleanup(s.Close)
	return s, rec
}

var nextHandle int64 = 1000

func entity(tag, id string, params map[string]any) *model.Entity {
	e := &model.Entity{IDValue: id, Entity: tag, Params: params}
	nextHandle++
	e.SetHandle(nextHandle)
	return e
}

func builtin(t *testing.T, name string) calc.Calculator {
	t.Helper()
	c, ok := calc.Builtins().Lookup(name)
	require.True(t, ok, name)
	return c
}

// logical flattens recorded sets into "set.name:container/kind=value"
// lines, independent of handle identity.
func logical(t *testing.T, rec *emit.Recorder) []string {
	t.Helper()
	var out []string
	for _, s := range rec.Sets() {
		for _, h := range s.Members {
			p, ok := rec.Property(h)
			require.True(t, ok, "member %s of %s not recorded", h, s.Name)
			out = append(out, fmt.Sprintf("%s.%s:%s/%s=%s", s.Name, p.Name, p.Container, p.Kind, ir.Format(p.Value)))
		}
	}
	return out
}

// stubCalc returns a fixed result and counts calls.
type stubCalc struct {
	name   string
	caps   calc.Capabilities
	result calc.Result
	ok     bool
	err    error
	calls  int
}

func (c *stubCalc) Name() string                    { return c.name }
func (c *stubCalc) Capabilities() calc.Capabilities { return c.caps }

func (c *stubCalc) Calculate(calc.Context) (calc.Result, bool, error) {
	c.calls++
	return c.result, c.ok, c.err
}

var errEmitter = errors.New("disk full")

// failingEmitter fails property emission after n successes.
type failingEmitter struct {
	emit.Recorder
	n int
}

func (f *failingEmitter) EmitProperty(ctx context.Context, rec emit.PropertyRecord) (emit.Handle, error) {
	if f.n == 0 {
		return 0, errEmitter
	}
	f.n--
	return f.Recorder.EmitProperty(ctx, rec)
}
