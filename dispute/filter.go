package dispute

import (
	"context"
	"iter"
	"slices"
	"time"
)

// Store is the read side of the upstream violation store. Find returns a
// lazy, finite, single-use sequence; a query failure is yielded as the error
// of the final pair and iteration stops there.
type Store interface {
	Find(ctx context.Context, filter Filter) iter.Seq2[Record, error]
}

// Range is an inclusive time window. A zero bound leaves that side open.
type Range struct {
	From time.Time
	To   time.Time
}

// Between builds an inclusive range.
func Between(from, to time.Time) Range {
	return Range{From: from, To: to}
}

// Since builds a range open on the right.
func Since(from time.Time) Range {
	return Range{From: from}
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t falls in the range. A nil t only matches an
// unbounded range.
func (r Range) Contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Filter holds equality and range predicates over Record fields. The zero
// Filter matches every record.
type Filter struct {
	// CompanyID restricts to one company; empty means all companies.
	CompanyID     string
	SubmittedOnly bool
	// Statuses restricts the challenge status; empty means any.
	Statuses         []Status
	HasPriorityScore bool
	SubmissionDate   Range
	ResponseDate     Range
}

// Match evaluates the filter against a record in memory, with the same
// semantics the store adapters push down to their query languages.
func (f Filter) Match(r Record) bool {
	if f.CompanyID != "" && r.CompanyID != f.CompanyID {
		return false
	}
	if f.SubmittedOnly && !r.Submitted() {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status()) {
		return false
	}
	if f.HasPriorityScore && r.PriorityScore == nil {
		return false
	}
	var submitted, responded *time.Time
	if r.Challenge != nil {
		submitted = r.Challenge.SubmissionDate
		responded = r.Challenge.ResponseDate
	}
	return f.SubmissionDate.Contains(submitted) && f.ResponseDate.Contains(responded)
}
