// Package registry builds the immutable set of property and quantity set
// descriptions for one export profile and format version.
//
// Profiles are lists of initializers. Each initializer appends groups of
// sets to a Builder; chaining is additive and chaining order is the final
// set order. Tables are CUE files embedded in the binary and compiled by
// internal/compiler against the requested version and view.
//
// Registering the same set name for the same entity type twice is allowed
// but reported as a Lint. DuplicatePolicy decides whether the repeats are
// kept (the default) or dropped.
package registry

import (
	"embed"
	"fmt"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/compiler"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/schema"
)

//go:embed tables/*.cue
var tablesFS embed.FS

// Version is an output format version.
type Version string

const (
	IFC2x2    Version = "IFC2x2"
	IFC2x3    Version = "IFC2x3"
	IFC2x3CV2 Version = "IFC2x3CV2"
	IFC4      Version = "IFC4"
	IFCCOBIE  Version = "IFCCOBIE"
)

// Versions lists the supported versions, oldest first.
func Versions() []Version {
	return []Version{IFC2x2, IFC2x3, IFC2x3CV2, IFC4, IFCCOBIE}
}

// ParseVersion resolves a version name, ignoring case.
func ParseVersion(s string) (Version, error) {
	for _, v := range Versions() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown format version %q", s)
}

// DuplicatePolicy decides what happens to repeated (set name, entity type)
// registrations.
type DuplicatePolicy string

const (
	// KeepDuplicates registers every repeat; each one is exported.
	KeepDuplicates DuplicatePolicy = "keep"
	// DropDuplicates drops a set whose every binding is already registered.
	DropDuplicates DuplicatePolicy = "drop"
)

// ParseDuplicatePolicy resolves a policy name. Empty means keep.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", KeepDuplicates:
		return KeepDuplicates, nil
	case DropDuplicates:
		return DropDuplicates, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (want keep or drop)", s)
}

// Group is a named, ordered run of sets added by one initializer call.
type Group struct {
	Name string
	Sets []*schema.SetDescription
}

// Lint reports a set name registered more than once for one entity type.
type Lint struct {
	SetName    string
	EntityType string
	// Groups names every group that registered the pair, in order.
	Groups []string
}

func (l Lint) String() string {
	return fmt.Sprintf("set %q registered %d times for %s (groups: %s)",
		l.SetName, len(l.Groups), l.EntityType, strings.Join(l.Groups, ", "))
}

// Initializer appends sets to a Builder.
type Initializer func(*Builder) error

// Builder collects groups for one registry. Tables are compiled once per
// builder with the builder's version and view.
type Builder struct {
	opts   compiler.Options
	groups []Group
	tables map[string]*compiler.Table
}

// NewBuilder returns an empty builder.
func NewBuilder(opts compiler.Options) *Builder {
	if opts.Calculators == nil {
		opts.Calculators = calc.Builtins()
	}
	return &Builder{opts: opts, tables: make(map[string]*compiler.Table)}
}

// Add appends a group. Empty groups are ignored.
func (b *Builder) Add(group string, sets ...*schema.SetDescription) {
	if len(sets) == 0 {
		return
	}
	b.groups = append(b.groups, Group{Name: group, Sets: slices.Clone(sets)})
}

// Chain runs initializers in order.
func (b *Builder) Chain(inits ...Initializer) error {
	for _, init := range inits {
		if err := init(b); err != nil {
			return err
		}
	}
	return nil
}

// Table returns an embedded table compiled for this builder.
func (b *Builder) Table(name string) (*compiler.Table, error) {
	if t, ok := b.tables[name]; ok {
		return t, nil
	}
	file := path.Join("tables", name+".cue")
	src, err := tablesFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	t, err := compiler.CompileSource(file, src, b.opts)
	if err != nil {
		return nil, fmt.Errorf("compile table %s: %w", name, err)
	}
	b.tables[name] = t
	return t, nil
}

// TableSets adds the named sets of an embedded table as one group, in the
// order given. Every set carrying a requested name is added. With no names
// the whole table is added. A requested name that the version and view
// filtered out is not an error.
func TableSets(group, table string, names ...string) Initializer {
	return func(b *Builder) error {
		t, err := b.Table(table)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			b.Add(group, t.Sets...)
			return nil
		}
		var sets []*schema.SetDescription
		for _, name := range names {
			for _, s := range t.Sets {
				if s.Name() == name {
					sets = append(sets, s)
				}
			}
		}
		b.Add(group, sets...)
		return nil
	}
}

// FileSets adds every set of a table file on disk as one group named after
// the file.
func FileSets(filename string) Initializer {
	return func(b *Builder) error {
		t, err := compiler.CompileFile(filename, b.opts)
		if err != nil {
			return err
		}
		b.Add(filename, t.Sets...)
		return nil
	}
}

// Options configures Catalog.Build.
type Options struct {
	Profiles []string
	Version  Version
	// View is the active model view, e.g. "FMHandOverView".
	View        string
	Policy      DuplicatePolicy
	Calculators *calc.Registry
	// Tables are user table files added after the profiles.
	Tables []string
	// Extra initializers run last, e.g. ScheduleSets.
	Extra  []Initializer
	Logger *zap.Logger
}

// Catalog maps profile names to initializers.
type Catalog struct {
	profiles map[string][]Initializer
	order    []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{profiles: make(map[string][]Initializer)}
}

// Register appends initializers to a profile, creating it if needed.
func (c *Catalog) Register(profile string, inits ...Initializer) {
	if _, ok := c.profiles[profile]; !ok {
		c.order = append(c.order, profile)
	}
	c.profiles[profile] = append(c.profiles[profile], inits...)
}

// Profiles lists profile names in registration order.
func (c *Catalog) Profiles() []string {
	return slices.Clone(c.order)
}

// Build runs the requested profiles in order, then the user tables, and
// freezes the result.
func (c *Catalog) Build(opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := ParseDuplicatePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	b := NewBuilder(compiler.Options{
		Version:     string(opts.Version),
		View:        opts.View,
		Calculators: opts.Calculators,
	})
	for _, profile := range opts.Profiles {
		inits, ok := c.profiles[profile]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q (have %s)", profile, strings.Join(c.order, ", "))
		}
		if err := b.Chain(inits...); err != nil {
			return nil, fmt.Errorf("profile %s: %w", profile, err)
		}
	}
	for _, file := range opts.Tables {
		if err := b.Chain(FileSets(file)); err != nil {
			return nil, fmt.Errorf("table %s: %w", file, err)
		}
	}
	if err := b.Chain(opts.Extra...); err != nil {
		return nil, err
	}

	r, err := freeze(b.groups, policy)
	if err != nil {
		return nil, err
	}
	r.profiles = slices.Clone(opts.Profiles)
	r.version = opts.Version
	r.view = opts.View

	for _, l := range r.lints {
		logger.Warn("duplicate set registration",
			zap.String("set", l.SetName),
			zap.String("entity_type", l.EntityType),
			zap.Strings("groups", l.Groups),
			zap.String("policy", string(policy)))
	}
	logger.Debug("registry built",
		zap.Strings("profiles", r.profiles),
		zap.String("version", string(r.version)),
		zap.Int("sets", len(r.sets)),
		zap.String("fingerprint", r.fingerprint))
	return r, nil
}

// Registry is an immutable, ordered collection of set descriptions.
type Registry struct {
	profiles    []string
	version     Version
	view        string
	groups      []Group
	sets        []*schema.SetDescription
	lints       []Lint
	fingerprint string
}

type binding struct {
	set, entityType string
}

func freeze(groups []Group, policy DuplicatePolicy) (*Registry, error) {
	r := &Registry{}
	seen := make(map[binding][]string)
	var order []binding

	for _, g := range groups {
		kept := Group{Name: g.Name}
		for _, s := range g.Sets {
			dup := true
			for _, et := range s.EntityTypes() {
				if _, ok := seen[binding{s.Name(), et}]; !ok {
					dup = false
				}
			}
			for _, et := range s.EntityTypes() {
				k := binding{s.Name(), et}
				if _, ok := seen[k]; !ok {
					order = append(order, k)
				}
				seen[k] = append(seen[k], g.Name)
			}
			if dup && policy == DropDuplicates {
				continue
			}
			kept.Sets = append(kept.Sets, s)
			r.sets = append(r.sets, s)
		}
		if len(kept.Sets) > 0 {
			r.groups = append(r.groups, kept)
		}
	}

	for _, k := range order {
		if g := seen[k]; len(g) > 1 {
			r.lints = append(r.lints, Lint{SetName: k.set, EntityType: k.entityType, Groups: g})
		}
	}

	fp, err := fingerprint(r.sets)
	if err != nil {
		return nil, err
	}
	r.fingerprint = fp
	return r, nil
}

func fingerprint(sets []*schema.SetDescription) (string, error) {
	descs := make([]any, len(sets))
	for i, s := range sets {
		descs[i] = s.Describe()
	}
	h, err := ir.RegistryHash(map[string]any{"sets": descs})
	if err != nil {
		return "", fmt.Errorf("fingerprint registry: %w", err)
	}
	return h, nil
}

// Profiles returns the profiles the registry was built from.
func (r *Registry) Profiles() []string { return slices.Clone(r.profiles) }

// Version returns the format version.
func (r *Registry) Version() Version { return r.version }

// View returns the model view, empty when none.
func (r *Registry) View() string { return r.view }

// Groups returns the groups in registration order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		out[i] = Group{Name: g.Name, Sets: slices.Clone(g.Sets)}
	}
	return out
}

// Sets returns every set in registration order.
func (r *Registry) Sets() []*schema.SetDescription { return slices.Clone(r.sets) }

// Lints returns duplicate registrations, whatever the policy.
func (r *Registry) Lints() []Lint { return slices.Clone(r.lints) }

// Fingerprint is a content hash of the registered sets. Registries with
// equal fingerprints export identically and may be shared across sessions.
func (r *Registry) Fingerprint() string { return r.fingerprint }

// Applicable returns the sets that apply to an entity, in registry order.
func (r *Registry) Applicable(entityType, objectType string) []*schema.SetDescription {
	var out []*schema.SetDescription
	for _, s := range r.sets {
		if s.Applies(entityType, objectType) {
			out = append(out, s)
		}
	}
	return out
}
