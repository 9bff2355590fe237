package workflow

import "fmt"

// IllegalTransitionError identifies a rejected (from, to) hop. Transitions
// outside the table always fail with this error, never with a silent clamp.
type IllegalTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s -> %s", e.Entity, e.From, e.To)
}
