// Package selection models what the viewer has picked: a display mode and a
// target within that mode. State values are immutable; every interaction
// yields a new State, and the picker options are derived from the dataset on
// demand rather than stored.
package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

// ErrUnknownMode is returned when a mode string names neither individuals nor groups.
var ErrUnknownMode = errors.New("unknown mode")

// State is the current selection.
type State struct {
	filter models.Filter
}

// New returns the initial selection: every individual.
func New() State {
	return State{filter: models.AllFilter(models.ModeIndividual)}
}

// Filter returns the filter this selection resolves to.
func (s State) Filter() models.Filter {
	return s.filter
}

// SwitchMode changes mode and resets the target to the new mode's "all"
// sentinel, since subject and group ids are different domains.
func (s State) SwitchMode(mode models.Mode) State {
	return State{filter: models.AllFilter(mode)}
}

// Select picks a target within the current mode.
func (s State) Select(target string) State {
	return State{filter: models.Filter{Mode: s.filter.Mode, Target: target}}
}

// ParseMode maps user input to a Mode. "position" is accepted for groups.
func ParseMode(value string) (models.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "individual", "individuals":
		return models.ModeIndividual, nil
	case "group", "groups", "position", "positions":
		return models.ModeGroup, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// Parse builds the filter for raw mode and target input. An empty target
// leaves the filter unresolved.
func Parse(mode, target string) (models.Filter, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return models.Filter{}, err
	}
	return New().SwitchMode(m).Select(strings.TrimSpace(target)).Filter(), nil
}

// Resolve is Parse for user-typed input against ds: a bare "all" means the
// mode's sentinel unless ds really has an id spelled that way.
func Resolve(ds *models.Dataset, mode, target string) (models.Filter, error) {
	f, err := Parse(mode, target)
	if err != nil {
		return models.Filter{}, err
	}
	if strings.EqualFold(f.Target, "all") && !hasValue(ds.Values(f.Mode), f.Target) {
		return models.AllFilter(f.Mode), nil
	}
	return f, nil
}

func hasValue(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}

// Option is one entry in the value picker.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// OptionSet is the picker contents for one mode.
type OptionSet struct {
	Mode    models.Mode `json:"mode"`
	Label   string      `json:"label"`
	Options []Option    `json:"options"`
	Value   string      `json:"value"`
}

// Options lists the distinct values for mode, sorted, followed by the "all"
// sentinel, which is also the default value.
func Options(ds *models.Dataset, mode models.Mode) OptionSet {
	values := ds.Values(mode)
	all := mode.AllLabel()

	options := make([]Option, 0, len(values)+1)
	for _, v := range values {
		options = append(options, Option{Label: v, Value: v})
	}
	options = append(options, Option{Label: all, Value: all})

	return OptionSet{
		Mode:    mode,
		Label:   mode.PickerLabel(),
		Options: options,
		Value:   all,
	}
}
