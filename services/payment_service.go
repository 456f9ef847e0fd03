package services

import (
	"errors"
	"time"

	"github.com/classmatebd/classmate_backend/apperrors"
	"github.com/classmatebd/classmate_backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentInput struct {
	Amount        float64
	Date          time.Time
	Method        string
	Status        string
	TransactionID string
	Reference     string
	Remarks       string
	Metadata      string
}

func validPaymentMethod(method string) bool {
	switch method {
	case models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodBkash,
		models.PaymentMethodRocket, models.PaymentMethodNagad:
		return true
	}
	return false
}

func validPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusFailed,
		models.PaymentStatusCancelled, models.PaymentStatusRefunded:
		return true
	}
	return false
}

// RecordPayment books a payment against an enrollment. The student is
// taken from the enrollment, never from the request.
func RecordPayment(tx *gorm.DB, enrollmentID uuid.UUID, in PaymentInput) (*models.StudentPayment, error) {
	if in.Amount <= 0 {
		return nil, apperrors.InvalidAnswer("amount must be greater than zero")
	}
	if in.Method == "" {
		in.Method = models.PaymentMethodCash
	}
	if in.Status == "" {
		in.Status = models.PaymentStatusPaid
	}
	if !validPaymentMethod(in.Method) {
		return nil, apperrors.InvalidAnswer("unknown payment method %s", in.Method)
	}
	if !validPaymentStatus(in.Status) {
		return nil, apperrors.InvalidAnswer("unknown payment status %s", in.Status)
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	var enrollment models.BatchEnrollment
	err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("enrollment not found")
	}
	if err != nil {
		return nil, err
	}

	payment := models.StudentPayment{
		ID:                uuid.New(),
		BatchEnrollmentID: enrollment.ID,
		StudentID:         enrollment.StudentID,
		Amount:            in.Amount,
		Date:              in.Date,
		Method:            in.Method,
		Status:            in.Status,
		TransactionID:     in.TransactionID,
		Reference:         in.Reference,
		Remarks:           in.Remarks,
		Metadata:          in.Metadata,
	}

	if err := tx.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePayment edits the mutable fields of a recorded payment. Refunded
// payments are frozen; corrections go through a new record.
func UpdatePayment(tx *gorm.DB, paymentID uuid.UUID, in PaymentInput) (*models.StudentPayment, error) {
	var payment models.StudentPayment
	err := tx.Where("id = ?", paymentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("payment not found")
	}
	if err != nil {
		return nil, err
	}

	if payment.IsRefunded {
		return nil, apperrors.InvalidState("refunded payments cannot be edited")
	}

	if in.Amount != 0 {
		if in.Amount < 0 {
			return nil, apperrors.InvalidAnswer("amount must be greater than zero")
		}
		payment.Amount = in.Amount
	}
	if in.Method != "" {
		if !validPaymentMethod(in.Method) {
			return nil, apperrors.InvalidAnswer("unknown payment method %s", in.Method)
		}
		payment.Method = in.Method
	}
	if in.Status != "" {
		if !validPaymentStatus(in.Status) {
			return nil, apperrors.InvalidAnswer("unknown payment status %s", in.Status)
		}
		payment.Status = in.Status
	}
	if !in.Date.IsZero() {
		payment.Date = in.Date
	}
	if in.TransactionID != "" {
		payment.TransactionID = in.TransactionID
	}
	if in.Reference != "" {
		payment.Reference = in.Reference
	}
	if in.Remarks != "" {
		payment.Remarks = in.Remarks
	}
	if in.Metadata != "" {
		payment.Metadata = in.Metadata
	}

	if err := tx.Save(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// RefundPayment marks a paid payment as refunded and stamps the date.
func RefundPayment(tx *gorm.DB, paymentID uuid.UUID, remarks string) (*models.StudentPayment, error) {
	var payment models.StudentPayment
	err := tx.Where("id = ?", paymentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("payment not found")
	}
	if err != nil {
		return nil, err
	}

	if payment.IsRefunded {
		return &payment, nil
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, apperrors.InvalidState("only paid payments can be refunded")
	}

	now := time.Now()
	payment.IsRefunded = true
	payment.RefundDate = &now
	payment.Status = models.PaymentStatusRefunded
	if remarks != "" {
		payment.Remarks = remarks
	}

	if err := tx.Save(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
