package workflow

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:         {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:          {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled, InvoiceStatusVoid},
	InvoiceStatusPartiallyPaid: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled, InvoiceStatusVoid, InvoiceStatusSent},
	InvoiceStatusOverdue:       {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoid, InvoiceStatusSent},
	InvoiceStatusPaid:          {InvoiceStatusVoid},
	InvoiceStatusCancelled:     {},
	InvoiceStatusVoid:          {},
}

// AllowedInvoiceTransitions returns the targets reachable from the status.
func AllowedInvoiceTransitions(from InvoiceStatus) []InvoiceStatus {
	return invoiceTransitions[from]
}

// CanTransitionInvoice reports whether from -> to is a legal hop.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateInvoiceTransition returns a typed error identifying the illegal
// (from, to) pair when the hop is not in the table.
func ValidateInvoiceTransition(from, to InvoiceStatus) error {
	if !CanTransitionInvoice(from, to) {
		return &IllegalTransitionError{Entity: "invoice", From: string(from), To: string(to)}
	}
	return nil
}

// IsTerminalInvoiceStatus reports whether the status has no outgoing edges.
func IsTerminalInvoiceStatus(s InvoiceStatus) bool {
	return len(invoiceTransitions[s]) == 0
}

// InvoiceStatuses lists every known invoice status.
func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusOverdue,
		InvoiceStatusPaid,
		InvoiceStatusCancelled,
		InvoiceStatusVoid,
	}
}

// ParseInvoiceStatus validates a raw status string.
func ParseInvoiceStatus(raw string) (InvoiceStatus, bool) {
	for _, s := range InvoiceStatuses() {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}
