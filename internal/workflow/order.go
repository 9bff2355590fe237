// Package workflow holds the authoritative transition tables for orders and
// invoices. The tables are data; applying a transition to a persisted entity
// is the owning service's job.
package workflow

// OrderStatus represents order lifecycle states.
type OrderStatus string

const (
	OrderStatusReceived          OrderStatus = "RECEIVED"
	OrderStatusAssigned          OrderStatus = "ASSIGNED"
	OrderStatusInProgress        OrderStatus = "IN_PROGRESS"
	OrderStatusSubmitted         OrderStatus = "SUBMITTED"
	OrderStatusInReview          OrderStatus = "IN_REVIEW"
	OrderStatusRevisionRequested OrderStatus = "REVISION_REQUESTED"
	OrderStatusApproved          OrderStatus = "APPROVED"
	OrderStatusDelivered         OrderStatus = "DELIVERED"
	OrderStatusClosed            OrderStatus = "CLOSED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
)

// Role scopes the transition table. Any role not listed here falls back to
// the global table; access control over who may invoke a transition lives
// with the caller.
type Role string

const (
	RoleDesigner Role = "designer"
	RoleDefault  Role = ""
)

// orderTransitions is the global table. REVISION_REQUESTED is entered only
// through the revision-request operation (from SUBMITTED, IN_REVIEW or
// APPROVED) and exits back into the normal flow via IN_PROGRESS.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusReceived:          {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:          {OrderStatusInProgress, OrderStatusReceived, OrderStatusCancelled},
	OrderStatusInProgress:        {OrderStatusSubmitted, OrderStatusCancelled},
	OrderStatusSubmitted:         {OrderStatusInReview, OrderStatusRevisionRequested, OrderStatusCancelled},
	OrderStatusInReview:          {OrderStatusApproved, OrderStatusRevisionRequested, OrderStatusCancelled},
	OrderStatusRevisionRequested: {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusApproved:          {OrderStatusDelivered, OrderStatusRevisionRequested, OrderStatusCancelled},
	OrderStatusDelivered:         {OrderStatusClosed},
	OrderStatusClosed:            {},
	OrderStatusCancelled:         {},
}

// designerTransitions restricts the designer role to picking up assigned work.
var designerTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAssigned: {OrderStatusInProgress},
}

// AllowedOrderTransitions returns the targets reachable from the given status
// under the given role.
func AllowedOrderTransitions(role Role, from OrderStatus) []OrderStatus {
	if role == RoleDesigner {
		return designerTransitions[from]
	}
	return orderTransitions[from]
}

// CanTransitionOrder reports whether from -> to is a legal hop for the role.
func CanTransitionOrder(role Role, from, to OrderStatus) bool {
	for _, s := range AllowedOrderTransitions(role, from) {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns a typed error when the hop is not in the
// table for the role.
func ValidateOrderTransition(role Role, from, to OrderStatus) error {
	if !CanTransitionOrder(role, from, to) {
		return &IllegalTransitionError{Entity: "order", From: string(from), To: string(to)}
	}
	return nil
}

// IsTerminalOrderStatus reports whether the status has no outgoing edges.
func IsTerminalOrderStatus(s OrderStatus) bool {
	return len(orderTransitions[s]) == 0
}

// OrderStatuses lists every known order status.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusReceived,
		OrderStatusAssigned,
		OrderStatusInProgress,
		OrderStatusSubmitted,
		OrderStatusInReview,
		OrderStatusRevisionRequested,
		OrderStatusApproved,
		OrderStatusDelivered,
		OrderStatusClosed,
		OrderStatusCancelled,
	}
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for _, s := range OrderStatuses() {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}
