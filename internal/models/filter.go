package models

import "fmt"

// Mode selects which field of a measurement a filter matches on.
type Mode string

const (
	ModeIndividual Mode = "individual"
	ModeGroup      Mode = "group"
)

// AllLabel is the label the UI shows for the "all" sentinel of this mode.
func (m Mode) AllLabel() string {
	if m == ModeGroup {
		return "All Positions"
	}
	return "All Individuals"
}

// PickerLabel is the caption shown above the value picker.
func (m Mode) PickerLabel() string {
	if m == ModeGroup {
		return "Select Position:"
	}
	return "Select Individual:"
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeIndividual || m == ModeGroup
}

// Filter fully determines which subset of a Dataset is visible.
// An empty Target means no selection has been made yet.
type Filter struct {
	Mode   Mode   `json:"mode"`
	Target string `json:"target"`
}

// Resolved reports whether a target has been chosen.
func (f Filter) Resolved() bool {
	return f.Target != ""
}

// AllFilter selects every record in mode.
func AllFilter(mode Mode) Filter {
	return Filter{Mode: mode, Target: mode.AllLabel()}
}

// IsAll reports whether the filter selects the whole dataset. Only the
// mode's own sentinel label counts, so an id such as "All" is still an id.
func (f Filter) IsAll() bool {
	return f.Target == f.Mode.AllLabel()
}

// Matches reports whether m belongs to the filtered subset.
func (f Filter) Matches(m Measurement) bool {
	if f.IsAll() {
		return true
	}
	if f.Mode == ModeGroup {
		return m.Group == f.Target
	}
	return m.Subject == f.Target
}

// DisplayTarget is the target as it appears in titles.
func (f Filter) DisplayTarget() string {
	if f.IsAll() {
		return f.Mode.AllLabel()
	}
	return f.Target
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%q", f.Mode, f.Target)
}
