package query

import (
	"errors"
	"strings"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// ErrInvalidDate is returned by ParseDate for values in no accepted layout.
var ErrInvalidDate = errors.New("invalid date")

const dateOnly = "2006-01-02"

// Criteria holds the optional document filters. Zero values are no-ops.
type Criteria struct {
	// Q is matched case-insensitively as a substring of title, description or any tag.
	Q string
	// Exact, case-sensitive matches.
	Category        string
	Department      string
	Status          string
	Confidentiality string
	// Inclusive bounds on UploadedAt. DateFrom after DateTo is not an error;
	// it simply matches nothing.
	DateFrom *time.Time
	DateTo   *time.Time
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.Q == "" && c.Category == "" && c.Department == "" && c.Status == "" &&
		c.Confidentiality == "" && c.DateFrom == nil && c.DateTo == nil
}

// Predicate combines every present criterion with logical AND.
// It returns nil when no criterion is set, which repositories treat as match-all.
func (c Criteria) Predicate() repository.Predicate {
	var preds []repository.Predicate

	if c.Q != "" {
		preds = append(preds, matchText(c.Q))
	}
	if c.Category != "" {
		preds = append(preds, func(d *model.Document) bool { return d.Category == c.Category })
	}
	if c.Department != "" {
		preds = append(preds, func(d *model.Document) bool { return d.Department == c.Department })
	}
	if c.Status != "" {
		preds = append(preds, func(d *model.Document) bool { return string(d.Status) == c.Status })
	}
	if c.Confidentiality != "" {
		preds = append(preds, func(d *model.Document) bool { return d.Confidentiality == c.Confidentiality })
	}
	if c.DateFrom != nil {
		from := *c.DateFrom
		preds = append(preds, func(d *model.Document) bool { return !d.UploadedAt.Before(from) })
	}
	if c.DateTo != nil {
		to := *c.DateTo
		preds = append(preds, func(d *model.Document) bool { return !d.UploadedAt.After(to) })
	}

	if len(preds) == 0 {
		return nil
	}
	return And(preds...)
}

// And returns a predicate that holds when all preds hold.
func And(preds ...repository.Predicate) repository.Predicate {
	return func(d *model.Document) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}
}

func matchText(q string) repository.Predicate {
	needle := strings.ToLower(q)
	return func(d *model.Document) bool {
		if strings.Contains(strings.ToLower(d.Title), needle) ||
			strings.Contains(strings.ToLower(d.Description), needle) {
			return true
		}
		for _, tag := range d.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	}
}

// ParseDate accepts RFC3339 or YYYY-MM-DD. For an upper bound (endOfDay=true)
// a date-only value covers the whole day.
func ParseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
