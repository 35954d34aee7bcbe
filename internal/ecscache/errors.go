package ecscache

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced to the caller (spec.md §7). All other
// failure modes — allocator exhaustion, corrupt table references — are
// fatal assertion violations, not recoverable errors, and are never
// wrapped here.
var (
	// ErrUnsupportedTerm is raised when a term uses a named variable, a
	// non-wildcard variable reference, or InOutFilter.
	ErrUnsupportedTerm = errors.New("ecscache: unsupported term reference")

	// ErrInvalidGrouping is raised when cascade is combined with a
	// user-supplied group_by, or group_by is set twice.
	ErrInvalidGrouping = errors.New("ecscache: invalid grouping configuration")

	// ErrOrderByNotQueried is raised when order_by references a component
	// id that does not appear as an And term in the query.
	ErrOrderByNotQueried = errors.New("ecscache: order_by component not queried")

	// ErrWorldShuttingDown is raised when construction is attempted during
	// world teardown.
	ErrWorldShuttingDown = errors.New("ecscache: world is shutting down")

	// ErrInvalidIteratorState is raised when SetGroup is called while an
	// iteration is already in progress.
	ErrInvalidIteratorState = errors.New("ecscache: iterator already in progress")
)

// TermError names which term and reference failed validation.
type TermError struct {
	TermIndex int
	Field     string // "src", "first", "second", or "inout"
	Reason    string
}

func (e *TermError) Error() string {
	return fmt.Sprintf("ecscache: term %d %s: %s", e.TermIndex, e.Field, e.Reason)
}

func (e *TermError) Unwrap() error { return ErrUnsupportedTerm }

// GroupingError names the conflicting grouping configuration.
type GroupingError struct {
	Reason string
}

func (e *GroupingError) Error() string {
	return fmt.Sprintf("ecscache: grouping: %s", e.Reason)
}

func (e *GroupingError) Unwrap() error { return ErrInvalidGrouping }

// OrderByError names the order_by component id that was never queried.
type OrderByError struct {
	ComponentID ComponentID
}

func (e *OrderByError) Error() string {
	return fmt.Sprintf("ecscache: order_by component %d is not an And term of this query", e.ComponentID)
}

func (e *OrderByError) Unwrap() error { return ErrOrderByNotQueried }
