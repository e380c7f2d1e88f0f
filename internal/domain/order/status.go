package order

// Status is the order lifecycle state. The main line runs
// PENDING_PAYMENT → PROCESSING → SHIPPED → DELIVERED; cancellation branches
// off before shipment, returns branch off after delivery.
type Status string

const (
	StatusPendingPayment      Status = "PENDING_PAYMENT"
	StatusProcessing          Status = "PROCESSING"
	StatusShipped             Status = "SHIPPED"
	StatusDelivered           Status = "DELIVERED"
	StatusCancelledByCustomer Status = "CANCELLED_BY_CUSTOMER"
	StatusCancelledBySeller   Status = "CANCELLED_BY_SELLER"
	StatusCancelledByAdmin    Status = "CANCELLED_BY_ADMIN"
	StatusReturnRequested     Status = "RETURN_REQUESTED"
	StatusReturnApproved      Status = "RETURN_APPROVED"
	StatusReturnRejected      Status = "RETURN_REJECTED"
)

// PaymentStatus is the single mutable summary of the append-only payment
// log.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentCompleted         PaymentStatus = "COMPLETED"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

var statusTransitions = map[Status][]Status{
	StatusPendingPayment: {
		StatusProcessing,
		StatusCancelledByCustomer,
		StatusCancelledBySeller,
		StatusCancelledByAdmin,
	},
	StatusProcessing: {
		StatusShipped,
		StatusCancelledByCustomer,
		StatusCancelledBySeller,
		StatusCancelledByAdmin,
	},
	StatusShipped:         {StatusDelivered},
	StatusDelivered:       {StatusReturnRequested},
	StatusReturnRequested: {StatusReturnApproved, StatusReturnRejected},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Cancelled reports whether s is one of the CANCELLED_* statuses.
func (s Status) Cancelled() bool {
	switch s {
	case StatusCancelledByCustomer, StatusCancelledBySeller, StatusCancelledByAdmin:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be
// cancelled: only before shipment, and never twice.
func (s Status) Cancellable() bool {
	return s == StatusPendingPayment || s == StatusProcessing
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusShipped, StatusDelivered,
		StatusCancelledByCustomer, StatusCancelledBySeller, StatusCancelledByAdmin,
		StatusReturnRequested, StatusReturnApproved, StatusReturnRejected:
		return true
	}
	return false
}
