package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single record returned by the remote transactions API.
// Amount and CreatedAt stay in their wire form; use DecimalAmount and
// CreatedTime for arithmetic and comparisons.
type Transaction struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Category  string `json:"category"`
	CreatedAt string `json:"createdAt"`
	Status    Status `json:"status"`
}

// DecimalAmount parses Amount. Unparseable amounts count as zero.
func (t Transaction) DecimalAmount() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(t.Amount))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CreatedTime parses CreatedAt, accepting RFC3339 timestamps and plain dates.
func (t Transaction) CreatedTime() (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, t.CreatedAt); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid createdAt %q", t.CreatedAt)
}

// Status is the tri-state outcome of a transaction.
type Status int

const (
	// StatusPending is a transaction without a final outcome. The API
	// represents it by omitting status or sending null.
	StatusPending Status = iota
	// StatusSuccess is a completed transaction (status: true).
	StatusSuccess
	// StatusFailure is a failed transaction (status: false).
	StatusFailure
)

// AllStatuses lists the statuses in canonical order.
var AllStatuses = []Status{StatusSuccess, StatusFailure, StatusPending}

// String returns the query-parameter form of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "true"
	case StatusFailure:
		return "false"
	default:
		return "pending"
	}
}

// Label returns the display label of the status.
func (s Status) Label() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failed"
	default:
		return "Pending"
	}
}

// ParseStatus maps a query-parameter value to a Status. The sentinel "all"
// and the empty string report ok=false: they mean "no status constraint".
func ParseStatus(value string) (Status, bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", AllSentinel:
		return StatusPending, false, nil
	case "true", "success":
		return StatusSuccess, true, nil
	case "false", "failed", "failure":
		return StatusFailure, true, nil
	case "pending":
		return StatusPending, true, nil
	default:
		return StatusPending, false, fmt.Errorf("unknown status %q", value)
	}
}

// MarshalJSON writes true, false, or null.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusSuccess:
		return []byte("true"), nil
	case StatusFailure:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts booleans, null, and the string forms used in query
// parameters.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*s = StatusSuccess
		return nil
	case "false":
		*s = StatusFailure
		return nil
	case "null", "":
		*s = StatusPending
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid status %s: %w", string(data), err)
	}
	parsed, ok, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	if !ok {
		parsed = StatusPending
	}
	*s = parsed
	return nil
}
