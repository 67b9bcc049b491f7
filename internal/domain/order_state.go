package domain

import (
	"fmt"
	"strings"
)

// CanTransitionTo is the single place where order state changes are decided.
//
//	-> pendiente  never
//	-> pagada     needs a transaction id and the order must not be delivered
//	-> entregada  needs a transaction id and the order must not be pending
func (o *Order) CanTransitionTo(next OrderState) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown order state %q", ErrInvalidInput, next)
	}

	hasReceipt := strings.TrimSpace(o.TransactionID) != ""

	switch next {
	case OrderStatePending:
		return fmt.Errorf("%w: an order can only be changed to %s or %s",
			ErrIllegalTransition, OrderStatePaid, OrderStateDelivered)
	case OrderStatePaid:
		if !hasReceipt || o.State == OrderStateDelivered {
			return fmt.Errorf("%w: an order can only be marked %s when it has a receipt and was not delivered",
				ErrIllegalTransition, OrderStatePaid)
		}
	case OrderStateDelivered:
		if !hasReceipt || o.State == OrderStatePending {
			return fmt.Errorf("%w: an order can only be marked %s when it has a receipt and was already paid",
				ErrIllegalTransition, OrderStateDelivered)
		}
	}
	return nil
}

// CanDelete allows deletion of pending orders only.
func (o *Order) CanDelete() error {
	if o.State != OrderStatePending {
		return fmt.Errorf("%w: only %s orders can be deleted", ErrIllegalTransition, OrderStatePending)
	}
	return nil
}

// CanAttachPayment checks that a receipt can be registered on the order.
func (o *Order) CanAttachPayment(transactionID string) error {
	if strings.TrimSpace(transactionID) == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}
	if o.State.IsTerminal() {
		return fmt.Errorf("%w: the order was already delivered", ErrIllegalTransition)
	}
	return nil
}
