package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodBkash  = "bkash"
	PaymentMethodRocket = "rocket"
	PaymentMethodNagad  = "nagad"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
)

// StudentPayment records money received against a batch enrollment.
// Payments are recorded after the fact (cash or mobile-wallet reference),
// not collected through a gateway.
type StudentPayment struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BatchEnrollmentID uuid.UUID `gorm:"type:uuid;not null" json:"batch_enrollment_id"`
	StudentID         uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`

	Amount float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Date   time.Time `json:"date"`
	Method string    `gorm:"size:20;not null;default:'cash'" json:"method"`
	Status string    `gorm:"size:20;not null;default:'paid';index" json:"status"`

	TransactionID string `gorm:"size:100;index" json:"transaction_id"`
	Reference     string `gorm:"size:100" json:"reference"`
	Remarks       string `gorm:"type:text" json:"remarks"`

	IsRefunded bool       `gorm:"default:false" json:"is_refunded"`
	RefundDate *time.Time `json:"refund_date"`

	Metadata string `gorm:"type:text" json:"metadata"`

	BatchEnrollment BatchEnrollment `gorm:"foreignkey:BatchEnrollmentID" json:"-"`
	Student         Student         `gorm:"foreignkey:StudentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
