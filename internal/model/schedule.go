package model

// Schedule is a host schedule: a named selection of parameters that can be
// exported as a property set for the entity types it covers.
type Schedule struct {
	Name      string          `yaml:"name"`
	AppliesTo []string        `yaml:"applies_to"`
	Fields    []ScheduleField `yaml:"fields"`
}

// ScheduleField is one column of a schedule. Param defaults to Name and
// Kind to "Label".
type ScheduleField struct {
	Name  string `yaml:"name"`
	Param string `yaml:"param,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
}
