// Package compiler compiles CUE property-set tables into schema set
// descriptions.
//
// A table file declares enumerations and an ordered list of sets:
//
//	enums: PEnum_ElementStatus: ["New", "Existing", "Demolish", "Temporary"]
//
//	sets: [{
//		name:         "Pset_WallCommon"
//		entity_types: ["IfcWall"]
//		entries: [
//			{name: "Reference", kind: "Identifier"},
//			{name: "IsExternal", kind: "Boolean"},
//			{name: "LoadBearing", kind: "Boolean", calculator: "LoadBearing"},
//			{name: "Status", enum: "PEnum_ElementStatus", versions: ["IFC4"]},
//		]
//	}]
//
// Sets and entries may be restricted to format versions and excluded from
// model views. Calculators are referenced by name and resolved against a
// calc.Registry.
package compiler

import (
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/schema"
)

// Options selects which parts of a table apply.
type Options struct {
	// Version is the target format version, e.g. "IFC2x3". Entries and sets
	// restricted to other versions are skipped. Empty keeps everything.
	Version string

	// View is the active model view, e.g. "FMHandOverView".
	View string

	// Calculators resolves calculator names. Defaults to calc.Builtins().
	Calculators *calc.Registry
}

// Table is a compiled table file.
type Table struct {
	Name  string
	Sets  []*schema.SetDescription
	Enums map[string]*schema.Enumeration
}

// CompileFile reads and compiles one table file.
func CompileFile(path string, opts Options) (*Table, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return CompileSource(path, src, opts)
}

// CompileSource compiles table source. filename is used in positions.
func CompileSource(filename string, src []byte, opts Options) (*Table, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	t, err := CompileTable(v, opts)
	if err != nil {
		return nil, err
	}
	t.Name = filename
	return t, nil
}

// CompileTable compiles a CUE table value.
func CompileTable(v cue.Value, opts Options) (*Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if opts.Calculators == nil {
		opts.Calculators = calc.Builtins()
	}

	def := v.Context().CompileString(tableSchema).LookupPath(cue.ParsePath("#Table"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("table schema: %w", err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	c := &tableCompiler{opts: opts}
	if err := c.parseEnums(v); err != nil {
		return nil, err
	}
	sets, err := c.parseSets(v)
	if err != nil {
		return nil, err
	}
	return &Table{Sets: sets, Enums: c.enums}, nil
}

type tableCompiler struct {
	opts  Options
	enums map[string]*schema.Enumeration
}

func (c *tableCompiler) parseEnums(v cue.Value) error {
	c.enums = make(map[string]*schema.Enumeration)
	enumsVal := v.LookupPath(cue.ParsePath("enums"))
	if !enumsVal.Exists() {
		return nil
	}

	iter, err := enumsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		tokens, err := stringList(iter.Value())
		if err != nil {
			return err
		}
		enum, err := schema.NewEnumeration(name, tokens...)
		if err != nil {
			return &CompileError{
				Field:   "enums." + name,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
				Err:     err,
			}
		}
		c.enums[name] = enum
	}
	return nil
}

func (c *tableCompiler) parseSets(v cue.Value) ([]*schema.SetDescription, error) {
	iter, err := v.LookupPath(cue.ParsePath("sets")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sets []*schema.SetDescription
	for i := 0; iter.Next(); i++ {
		setVal := iter.Value()
		field := fmt.Sprintf("sets[%d]", i)

		keep, err := c.applies(setVal)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		set, err := c.parseSet(setVal, field)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (c *tableCompiler) parseSet(v cue.Value, field string) (*schema.SetDescription, error) {
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	kind, err := optionalString(v, "kind")
	if err != nil {
		return nil, err
	}
	var b *schema.SetBuilder
	if kind == "quantity" {
		b = schema.QuantitySet(name)
	} else {
		b = schema.PropertySet(name)
	}

	types, err := stringList(v.LookupPath(cue.ParsePath("entity_types")))
	if err != nil {
		return nil, err
	}
	b.AppliesTo(types...)

	objectType, err := optionalString(v, "object_type")
	if err != nil {
		return nil, err
	}
	b.ObjectType(objectType)

	if idxVal := v.LookupPath(cue.ParsePath("sub_element_index")); idxVal.Exists() {
		idx, err := idxVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		b.SubElementIndex(int(idx))
	}

	descName, err := optionalString(v, "description_calculator")
	if err != nil {
		return nil, err
	}
	if descName != "" {
		dc, err := c.calculator(descName, v.LookupPath(cue.ParsePath("description_calculator")), field)
		if err != nil {
			return nil, err
		}
		b.Description(dc)
	}

	entries, err := v.LookupPath(cue.ParsePath("entries")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; entries.Next(); i++ {
		entryVal := entries.Value()
		keep, err := c.applies(entryVal)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}
		entry, err := c.parseEntry(entryVal, kind == "quantity", fmt.Sprintf("%s.entries[%d]", field, i))
		if err != nil {
			return nil, err
		}
		b.Add(entry)
	}

	set, err := b.Build()
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return set, nil
}

func (c *tableCompiler) parseEntry(v cue.Value, quantity bool, field string) (*schema.Entry, error) {
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var b *schema.Builder
	if quantity {
		b = schema.Quantity(name)
	} else {
		b = schema.Property(name)
	}

	strs := make(map[string]string)
	for _, key := range []string{"kind", "container", "enum", "source", "builtin", "calculator", "output_name", "method"} {
		s, err := optionalString(v, key)
		if err != nil {
			return nil, err
		}
		strs[key] = s
	}

	if s := strs["kind"]; s != "" {
		k, err := ir.ParseMeasureKind(s)
		if err != nil {
			return nil, &CompileError{Field: field + ".kind", Message: err.Error(), Pos: v.Pos()}
		}
		b.Kind(k)
	}
	if s := strs["enum"]; s != "" {
		enum, ok := c.enums[s]
		if !ok {
			return nil, &CompileError{
				Field:   field + ".enum",
				Message: fmt.Sprintf("unknown enumeration %q", s),
				Pos:     v.LookupPath(cue.ParsePath("enum")).Pos(),
			}
		}
		b.Enumerated(enum)
	}
	if s := strs["container"]; s != "" {
		ck, err := ir.ParseContainerKind(s)
		if err != nil {
			return nil, &CompileError{Field: field + ".container", Message: err.Error(), Pos: v.Pos()}
		}
		b.Container(ck)
	}
	if s := strs["source"]; s != "" {
		b.Source(s)
	}
	if s := strs["builtin"]; s != "" {
		b.BuiltIn(s)
	}
	if s := strs["output_name"]; s != "" {
		b.OutputName(s)
	}
	if s := strs["method"]; s != "" {
		b.MethodOfMeasurement(s)
	}
	if s := strs["calculator"]; s != "" {
		calculator, err := c.calculator(s, v.LookupPath(cue.ParsePath("calculator")), field)
		if err != nil {
			return nil, err
		}
		b.Calculator(calculator)
	}

	if onlyVal := v.LookupPath(cue.ParsePath("calculator_only")); onlyVal.Exists() {
		only, err := onlyVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if only {
			b.CalculatorOnly()
		}
	}

	if locVal := v.LookupPath(cue.ParsePath("localized")); locVal.Exists() {
		iter, err := locVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			b.LocalizedSource(iter.Label(), s)
		}
	}

	entry, err := b.Build()
	if err != nil {
		return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return entry, nil
}

func (c *tableCompiler) calculator(name string, at cue.Value, field string) (calc.Calculator, error) {
	calculator, ok := c.opts.Calculators.Lookup(name)
	if !ok {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown calculator %q", name),
			Pos:     at.Pos(),
		}
	}
	return calculator, nil
}

// applies evaluates the versions and exclude_views filters of a set or
// entry.
func (c *tableCompiler) applies(v cue.Value) (bool, error) {
	if c.opts.Version != "" {
		if vv := v.LookupPath(cue.ParsePath("versions")); vv.Exists() {
			versions, err := stringList(vv)
			if err != nil {
				return false, err
			}
			if !slices.Contains(versions, c.opts.Version) {
				return false, nil
			}
		}
	}
	if c.opts.View != "" {
		if ev := v.LookupPath(cue.ParsePath("exclude_views")); ev.Exists() {
			views, err := stringList(ev)
			if err != nil {
				return false, err
			}
			if slices.Contains(views, c.opts.View) {
				return false, nil
			}
		}
	}
	return true, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
