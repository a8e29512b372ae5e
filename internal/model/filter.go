package model

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// AllSentinel is the select value meaning "no constraint". It must never
// reach a cache key or an outbound request.
const AllSentinel = "all"

// Query parameter names understood by the transactions endpoint.
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSearch    = "search"
	ParamCategory  = "category"
	ParamStatus    = "status"
	ParamCreatedGT = "createdAt_gte"
	ParamCreatedLT = "createdAt_lte"
	ParamDateFrom  = "dateFrom"
	ParamDateTo    = "dateTo"
)

const (
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
	isoDate   = "2006-01-02"
)

// DateMode selects how a date constraint is expressed on the wire. A
// deployment uses exactly one mode.
type DateMode string

const (
	// DateModeDay constrains to a single calendar day, sent as
	// createdAt_gte/createdAt_lte bounds.
	DateModeDay DateMode = "day"
	// DateModeRange constrains to an explicit range, sent as dateFrom/dateTo.
	DateModeRange DateMode = "range"
)

// ParseDateMode validates a configured date mode.
func ParseDateMode(s string) (DateMode, error) {
	switch DateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateModeDay:
		return DateModeDay, nil
	case DateModeRange:
		return DateModeRange, nil
	default:
		return "", fmt.Errorf("unknown date mode %q", s)
	}
}

// DateFilter is the optional date constraint of a FilterState.
type DateFilter struct {
	From *time.Time
	To   *time.Time
	Mode DateMode
}

// IsSet reports whether any bound is present.
func (d DateFilter) IsSet() bool {
	return d.From != nil || d.To != nil
}

// Day builds a single-day constraint covering 00:00:00.000 to 23:59:59.999
// of day in its own location.
func Day(day time.Time) DateFilter {
	y, m, dd := day.Date()
	from := time.Date(y, m, dd, 0, 0, 0, 0, day.Location())
	to := time.Date(y, m, dd, 23, 59, 59, int(999*time.Millisecond), day.Location())
	return DateFilter{Mode: DateModeDay, From: &from, To: &to}
}

// Range builds an explicit range constraint. Either bound may be nil.
func Range(from, to *time.Time) DateFilter {
	return DateFilter{Mode: DateModeRange, From: truncateDay(from), To: truncateDay(to)}
}

func truncateDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// FilterState is the canonical, immutable set of filter selections. Every
// change produces a new value so that it can serve as a cache key.
type FilterState struct {
	Date     DateFilter
	Search   string
	Category string
	Status   []Status
}

// Normalize returns the canonical form: trimmed strings, the "all" sentinel
// removed, and statuses de-duplicated in canonical order.
func (f FilterState) Normalize() FilterState {
	out := FilterState{
		Search:   strings.TrimSpace(f.Search),
		Category: strings.TrimSpace(f.Category),
		Date:     f.Date,
	}
	if strings.EqualFold(out.Category, AllSentinel) {
		out.Category = ""
	}
	for _, s := range AllStatuses {
		if slices.Contains(f.Status, s) {
			out.Status = append(out.Status, s)
		}
	}
	if !out.Date.IsSet() {
		out.Date = DateFilter{}
	}
	return out
}

// IsEmpty reports whether no filter is active.
func (f FilterState) IsEmpty() bool {
	n := f.Normalize()
	return n.Search == "" && n.Category == "" && len(n.Status) == 0 && !n.Date.IsSet()
}

// Equal compares two filter states by their canonical serialization.
func (f FilterState) Equal(other FilterState) bool {
	return f.Key() == other.Key()
}

// HasStatus reports whether s is selected.
func (f FilterState) HasStatus(s Status) bool {
	return slices.Contains(f.Status, s)
}

// Query serializes the filter into query parameters. Absent fields are
// omitted; status is written as one repeated parameter per value.
func (f FilterState) Query() url.Values {
	n := f.Normalize()
	q := url.Values{}

	if n.Search != "" {
		q.Set(ParamSearch, n.Search)
	}
	if n.Category != "" {
		q.Set(ParamCategory, n.Category)
	}
	for _, s := range n.Status {
		q.Add(ParamStatus, s.String())
	}

	switch n.Date.Mode {
	case DateModeRange:
		if n.Date.From != nil {
			q.Set(ParamDateFrom, n.Date.From.Format(isoDate))
		}
		if n.Date.To != nil {
			q.Set(ParamDateTo, n.Date.To.Format(isoDate))
		}
	default:
		if n.Date.From != nil {
			q.Set(ParamCreatedGT, n.Date.From.UTC().Format(isoMillis))
		}
		if n.Date.To != nil {
			q.Set(ParamCreatedLT, n.Date.To.UTC().Format(isoMillis))
		}
	}

	return q
}

// Key returns the cache key of the filter state.
func (f FilterState) Key() string {
	return "transactions/infinite?" + f.Query().Encode()
}

// String is the human-readable summary shown in the status bar.
func (f FilterState) String() string {
	if f.IsEmpty() {
		return "no filters"
	}
	return f.Query().Encode()
}

// ParseFilterQuery is the inverse of Query. Pagination parameters are
// ignored. The date mode is inferred from the parameter names present; a
// query mixing both conventions is rejected.
func ParseFilterQuery(q url.Values) (FilterState, error) {
	var f FilterState

	f.Search = strings.TrimSpace(q.Get(ParamSearch))
	f.Category = strings.TrimSpace(q.Get(ParamCategory))
	if strings.EqualFold(f.Category, AllSentinel) {
		f.Category = ""
	}

	for _, raw := range q[ParamStatus] {
		// Tolerate comma-joined values from older clients.
		for _, part := range strings.Split(raw, ",") {
			s, ok, err := ParseStatus(part)
			if err != nil {
				return FilterState{}, err
			}
			if ok {
				f.Status = append(f.Status, s)
			}
		}
	}

	hasDay := q.Has(ParamCreatedGT) || q.Has(ParamCreatedLT)
	hasRange := q.Has(ParamDateFrom) || q.Has(ParamDateTo)
	if hasDay && hasRange {
		return FilterState{}, fmt.Errorf("cannot mix %s/%s with %s/%s",
			ParamCreatedGT, ParamCreatedLT, ParamDateFrom, ParamDateTo)
	}

	switch {
	case hasDay:
		f.Date.Mode = DateModeDay
		from, err := parseTimeParam(q.Get(ParamCreatedGT))
		if err != nil {
			return FilterState{}, fmt.Errorf("invalid %s: %w", ParamCreatedGT, err)
		}
		to, err := parseTimeParam(q.Get(ParamCreatedLT))
		if err != nil {
			return FilterState{}, fmt.Errorf("invalid %s: %w", ParamCreatedLT, err)
		}
		f.Date.From, f.Date.To = from, to
	case hasRange:
		from, err := parseTimeParam(q.Get(ParamDateFrom))
		if err != nil {
			return FilterState{}, fmt.Errorf("invalid %s: %w", ParamDateFrom, err)
		}
		to, err := parseTimeParam(q.Get(ParamDateTo))
		if err != nil {
			return FilterState{}, fmt.Errorf("invalid %s: %w", ParamDateTo, err)
		}
		f.Date = Range(from, to)
	}

	return f.Normalize(), nil
}

func parseTimeParam(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, isoDate} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", v)
}
