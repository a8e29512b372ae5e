// Package filters owns the applied filter selection and the debounced
// search input that feeds it.
package filters

import (
	"strings"
	"time"

	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
)

// Intent is a discrete filter change requested by the user.
type Intent interface {
	intent()
}

// SetStatus replaces the status selection. Values use the query form
// ("true", "false", "pending"); "all" clears the selection.
type SetStatus struct {
	Values []string
}

// ToggleStatus adds or removes a single status.
type ToggleStatus struct {
	Status model.Status
}

// SetCategory replaces the category; "all" or "" clears it.
type SetCategory struct {
	Value string
}

// SetDay constrains to one calendar day; nil clears the date.
type SetDay struct {
	Day *time.Time
}

// SetRange constrains to an explicit date range; both nil clears it.
type SetRange struct {
	From *time.Time
	To   *time.Time
}

// CommitSearch applies settled search text.
type CommitSearch struct {
	Text string
}

// Clear resets every field.
type Clear struct{}

func (SetStatus) intent()    {}
func (ToggleStatus) intent() {}
func (SetCategory) intent()  {}
func (SetDay) intent()       {}
func (SetRange) intent()     {}
func (CommitSearch) intent() {}
func (Clear) intent()        {}

// Reduce applies intent to state and returns the new canonical state.
// state is never modified.
func Reduce(state model.FilterState, intent Intent) model.FilterState {
	next := state.Normalize()

	switch in := intent.(type) {
	case SetStatus:
		next.Status = nil
		for _, v := range in.Values {
			if isAll(v) {
				next.Status = nil
				break
			}
			if s, ok, err := model.ParseStatus(v); err == nil && ok {
				next.Status = append(next.Status, s)
			}
		}
	case ToggleStatus:
		statuses := make([]model.Status, 0, len(next.Status)+1)
		found := false
		for _, s := range next.Status {
			if s == in.Status {
				found = true
				continue
			}
			statuses = append(statuses, s)
		}
		if !found {
			statuses = append(statuses, in.Status)
		}
		next.Status = statuses
	case SetCategory:
		next.Category = in.Value
		if isAll(in.Value) {
			next.Category = ""
		}
	case SetDay:
		next.Date = model.DateFilter{}
		if in.Day != nil {
			next.Date = model.Day(*in.Day)
		}
	case SetRange:
		next.Date = model.DateFilter{}
		if in.From != nil || in.To != nil {
			next.Date = model.Range(in.From, in.To)
		}
	case CommitSearch:
		next.Search = in.Text
	case Clear:
		next = model.FilterState{}
	}

	return next.Normalize()
}

func isAll(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), model.AllSentinel)
}
