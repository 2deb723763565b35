package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/ifcpset/internal/cache"
	"github.com/roach88/ifcpset/internal/config"
	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/engine"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/registry"
	"github.com/roach88/ifcpset/internal/store"
	"github.com/roach88/ifcpset/internal/testutil"
)

// Option configures a harness run.
type Option func(*runOptions)

type runOptions struct {
	logger  *zap.Logger
	catalog *registry.Catalog
}

// WithLogger routes engine and registry logs. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *runOptions) {
		o.logger = l
	}
}

// WithCatalog replaces the default catalog.
func WithCatalog(c *registry.Catalog) Option {
	return func(o *runOptions) {
		o.catalog = c
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// GlobalIds come from testutil.SequentialGUIDs and the owner session is
// derived from the scenario name, so traces are reproducible.
//
// Execution flow:
// 1. Load the configuration and apply the scenario overrides
// 2. Load the model and build the registry
// 3. Export every model entity, in document order, into the store
// 4. Read the emitted sets back as the trace
// 5. Evaluate assertions
//
// A returned error means the scenario could not run. Failed assertions are
// reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: zap.NewNop(), catalog: registry.DefaultCatalog()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx := context.Background()

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	m, err := model.Load(scenario.Model)
	if err != nil {
		return nil, err
	}

	regOpts, err := cfg.RegistryOptions(m, o.logger)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(scenario.Profiles) > 0 {
		regOpts.Profiles = scenario.Profiles
	}
	reg, err := o.catalog.Build(regOpts)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	sess := engine.NewSession(reg, st,
		engine.WithCache(cache.New(cache.WithEnabled(cfg.Cache))),
		engine.WithScale(cfg.Scale(m)),
		engine.WithLocale(cfg.Locale),
		engine.WithClassification(cfg.Classification),
		engine.WithGUIDGenerator(testutil.NewSequentialGUIDs()),
		engine.WithOwner(emit.OwnerContext{
			Application: ir.ApplicationName,
			Author:      cfg.Author,
			Session:     "scenario:" + scenario.Name,
		}),
		engine.WithLogger(o.logger),
	)

	for _, e := range m.Entities {
		if _, err := sess.Export(ctx, e); err != nil {
			sess.Close()
			return nil, fmt.Errorf("export %s: %w", e.ID(), err)
		}
	}
	stats := sess.Stats()
	sess.Close()

	result := NewResult()
	result.Stats = stats
	if err := buildTrace(ctx, st, m, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// scenarioConfig loads the scenario's config, or the defaults, and applies
// the scenario overrides.
func scenarioConfig(scenario *Scenario) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if scenario.Config != "" {
		loaded, err := config.Load(scenario.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if scenario.Version != "" {
		cfg.Version = scenario.Version
	}
	if scenario.Cache != nil {
		cfg.Cache = *scenario.Cache
	}
	return cfg, nil
}

// buildTrace reads the emitted sets back from the store. Target handles are
// mapped to model entity ids.
func buildTrace(ctx context.Context, st *store.Store, m *model.Model, result *Result) error {
	ids := make(map[emit.Handle]string, len(m.Types)+len(m.Entities))
	for _, group := range [][]*model.Entity{m.Types, m.Entities} {
		for _, e := range group {
			ids[emit.Handle(e.Handle())] = e.ID()
		}
	}

	sets, err := st.ListSets(ctx)
	if err != nil {
		return fmt.Errorf("read sets: %w", err)
	}
	props, err := st.ListProperties(ctx)
	if err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	byHandle := make(map[emit.Handle]store.StoredProperty, len(props))
	for _, p := range props {
		byHandle[p.Handle] = p
	}

	for _, s := range sets {
		for _, target := range s.Targets {
			entity, ok := ids[target]
			if !ok {
				entity = target.String()
			}
			ev := TraceEvent{
				Handle:      int64(s.Handle),
				Entity:      entity,
				Set:         s.Name,
				Kind:        s.Kind.String(),
				GlobalID:    s.GlobalID,
				Description: s.Description,
				Properties:  make([]TraceProperty, 0, len(s.Members)),
			}
			for _, h := range s.Members {
				p, ok := byHandle[h]
				if !ok {
					return fmt.Errorf("set %s: member %s not stored", s.Handle, h)
				}
				ev.Properties = append(ev.Properties, TraceProperty{
					Handle:   int64(p.Handle),
					Name:     p.Name,
					Kind:     p.Kind.String(),
					Value:    ir.Format(p.Value),
					Quantity: p.Quantity,
					raw:      p.Value,
				})
			}
			result.Trace = append(result.Trace, ev)
		}
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return fmt.Errorf("read counts: %w", err)
	}
	result.Counts = counts
	return nil
}
