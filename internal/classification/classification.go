// Package classification holds the classification system settings of an
// export and parses classification-reference property values.
package classification

import (
	"errors"
	"strings"
	"time"

	"github.com/roach88/ifcpset/internal/ir"
)

// Classification describes the classification system referenced by
// ClassificationReference values. Name, Source and Edition are mandatory
// once any of them is set.
type Classification struct {
	Name        string    `yaml:"name" json:"name"`
	Source      string    `yaml:"source" json:"source"`
	Edition     string    `yaml:"edition" json:"edition"`
	EditionDate time.Time `yaml:"edition_date,omitempty" json:"edition_date,omitempty"`
	Location    string    `yaml:"location,omitempty" json:"location,omitempty"`
}

// ErrIncomplete is returned by Validate when some but not all mandatory
// fields are filled.
var ErrIncomplete = errors.New("classification name, source and edition must all be set")

// Unchanged reports whether the persisted fields of c and other match.
func (c Classification) Unchanged(other Classification) bool {
	return c.Name == other.Name &&
		c.Source == other.Source &&
		c.Edition == other.Edition &&
		c.EditionDate.Equal(other.EditionDate) &&
		c.Location == other.Location
}

// MandatoryFilled reports whether name, source and edition are all set.
func (c Classification) MandatoryFilled() bool {
	return c.Name != "" && c.Source != "" && c.Edition != ""
}

// MandatoryEmpty reports whether name, source and edition are all unset.
func (c Classification) MandatoryEmpty() bool {
	return c.Name == "" && c.Source == "" && c.Edition == ""
}

// Validate accepts either no classification or a complete one.
func (c Classification) Validate() error {
	if c.MandatoryEmpty() || c.MandatoryFilled() {
		return nil
	}
	return ErrIncomplete
}

// Qualify fills the system of an unqualified reference with the configured
// classification name.
func (c Classification) Qualify(ref ir.Reference) ir.Reference {
	if ref.System == "" && c.Name != "" {
		ref.System = c.Name
	}
	return ref
}

// ParseReference parses "[System] Code : Name". Only Code is required.
// Blank input yields false.
func ParseReference(s string) (ir.Reference, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ir.Reference{}, false
	}

	var ref ir.Reference
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			ref.System = strings.TrimSpace(s[1:end])
			s = strings.TrimSpace(s[end+1:])
		}
	}

	code, name, _ := strings.Cut(s, ":")
	ref.Code = strings.TrimSpace(code)
	ref.Name = strings.TrimSpace(name)
	if ref.Code == "" {
		return ir.Reference{}, false
	}
	return ref, true
}
