// Package orderstatus defines the order lifecycle and its legal
// transitions. Orders start in Processing at checkout and move only
// forward; Delivered and Refunded are terminal.
package orderstatus

import (
	"errors"
	"fmt"
)

// Status is an order's lifecycle stage, stored as a smallint. The codes
// are non-sequential for historical reasons and must be preserved exactly.
type Status int16

const (
	Processing Status = 0
	Delivered  Status = 1
	Shipped    Status = 2
	Refunded   Status = 3
)

var (
	ErrInvalidStatusCode = errors.New("invalid order status code")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// String returns the status wire name.
func (s Status) String() string {
	switch s {
	case Processing:
		return "processing"
	case Shipped:
		return "shipped"
	case Delivered:
		return "delivered"
	case Refunded:
		return "refunded"
	}
	return fmt.Sprintf("unknown(%d)", int16(s))
}

// FromCode validates a stored status code. Unrecognized codes are a hard
// error; there is no defaulting.
func FromCode(code int16) (Status, error) {
	switch s := Status(code); s {
	case Processing, Shipped, Delivered, Refunded:
		return s, nil
	}
	return 0, ErrInvalidStatusCode
}

// FromName maps a wire name back to a status.
func FromName(name string) (Status, error) {
	switch name {
	case "processing":
		return Processing, nil
	case "shipped":
		return Shipped, nil
	case "delivered":
		return Delivered, nil
	case "refunded":
		return Refunded, nil
	}
	return 0, ErrInvalidStatusCode
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
// Delivered and Refunded have no entries: they are terminal.
var allowedTransitions = map[Status][]Status{
	Processing: {Shipped, Refunded},
	Shipped:    {Delivered, Refunded},
}

// ValidateTransition checks whether current may move to next. Self-loops
// are rejected like any other missing edge.
func ValidateTransition(current, next Status) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}

// Terminal reports whether no further transition can leave s.
func Terminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}
