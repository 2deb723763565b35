package schema

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Enumeration is an ordered set of canonical string tokens. Matching
// ignores case, spaces and underscores: "operable", "OPERABLE" and
// "Oper_able" all match "Operable".
type Enumeration struct {
	name   string
	tokens []string
	folded map[string]string
}

// NewEnumeration builds an enumeration and its folded lookup table.
func NewEnumeration(name string, tokens ...string) (*Enumeration, error) {
	var errs []ValidationError
	if len(tokens) == 0 {
		errs = append(errs, ValidationError{
			Field:   "tokens",
			Message: "at least one token is required",
			Code:    ErrEmptyEnumeration,
		})
	}

	folded := make(map[string]string, len(tokens))
	for i, tok := range tokens {
		key := fold(tok)
		if key == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tokens[%d]", i),
				Message: "token is empty",
				Code:    ErrEmptyEnumeration,
			})
			continue
		}
		if prev, dup := folded[key]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tokens[%d]", i),
				Message: fmt.Sprintf("%q folds to the same key as %q", tok, prev),
				Code:    ErrDuplicateEnumToken,
			})
			continue
		}
		folded[key] = tok
	}

	if err := newSchemaError(fmt.Sprintf("enumeration %q", name), errs); err != nil {
		return nil, err
	}
	return &Enumeration{name: name, tokens: slices.Clone(tokens), folded: folded}, nil
}

// MustEnumeration is NewEnumeration for literal tables. It panics on error.
func MustEnumeration(name string, tokens ...string) *Enumeration {
	e, err := NewEnumeration(name, tokens...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the enumeration type name, e.g. "PEnum_WindowPanelOperation".
func (e *Enumeration) Name() string { return e.name }

// Tokens returns the canonical tokens in declaration order.
func (e *Enumeration) Tokens() []string { return slices.Clone(e.tokens) }

// Match returns the canonical token s matches.
func (e *Enumeration) Match(s string) (string, bool) {
	tok, ok := e.folded[fold(s)]
	return tok, ok
}

// fold case-folds s and drops spaces and underscores.
func fold(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' {
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(s)
}
