package domain

import "time"

type NotificationKind string

const (
	NotifyOrderCreated          NotificationKind = "order_created"
	NotifyOrderCreatedAdmins    NotificationKind = "order_created_admins"
	NotifyPaymentReceived       NotificationKind = "payment_received"
	NotifyPaymentReceivedAdmins NotificationKind = "payment_received_admins"
	NotifyOrderPaid             NotificationKind = "order_paid"
	NotifyOrderDelivered        NotificationKind = "order_delivered"
	NotifyOrderDeleted          NotificationKind = "order_deleted"
)

// NotificationForState picks the message sent to the owner after a state change.
func NotificationForState(s OrderState) (NotificationKind, bool) {
	switch s {
	case OrderStatePaid:
		return NotifyOrderPaid, true
	case OrderStateDelivered:
		return NotifyOrderDelivered, true
	}
	return "", false
}

// Notification is the payload published for the e-mail sender.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	From       string           `json:"from,omitempty"`
	Recipients []string         `json:"recipients"`
	OrderRef   string           `json:"order_ref"`
	CreatedAt  time.Time        `json:"created_at"`
}
