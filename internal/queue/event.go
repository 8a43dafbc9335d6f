// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by publishers and the consumer.
const (
	ReservationConfirmedQueue = "reservation.confirmed"
	ReservationCancelledQueue = "reservation.cancelled"
	PasswordResetQueue        = "auth.password_reset"
	PromotionQueue            = "customer.promotion"
)

// ReservationConfirmedEvent is published when a table has been allocated
// and the reservation confirmed.  It carries enough information for
// downstream consumers to log or notify without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Guests        uint32 `json:"guests"`
	Category      string `json:"category"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a reservation is cancelled
// and its table released.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id,omitempty"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	CancelledAt   string `json:"cancelled_at"`
}

// PromotionEvent is published when staff send a promotional message to
// a customer.  The notification service turns it into an email.
type PromotionEvent struct {
	UserID  uint64 `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
	SentAt  string `json:"sent_at"`
}

// PasswordResetEvent is published when a user requests a password reset.
// The notification service turns the link into an email; the raw token
// only ever travels over the broker, never into the primary database.
type PasswordResetEvent struct {
	UserID      uint64 `json:"user_id"`
	Email       string `json:"email"`
	ResetLink   string `json:"reset_link"`
	ExpiresAt   string `json:"expires_at"`
	RequestedAt string `json:"requested_at"`
}
