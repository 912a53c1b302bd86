package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/store"
	"github.com/shopspring/decimal"
)

// PaymentStatusApproved is the only webhook status accepted as a successful payment.
const PaymentStatusApproved = "approved"

const defaultDonationHistory = 10

// maxAmount is the first value that needs nine integer digits.
var maxAmount = decimal.New(1, 8)

// DonationService records donations and validates payment notifications.
type DonationService struct {
	store store.Store
	log   *logger.Logger
	now   func() time.Time
}

// OneTimeDonationInput lists every field of a one-time donation. DonorName
// and Email are optional; Amount and TransactionID are required.
type OneTimeDonationInput struct {
	DonorName     *string          `validate:"omitempty,max=255"`
	Email         *string          `validate:"omitempty,email,max=255"`
	Amount        *decimal.Decimal `validate:"-"`
	TransactionID string           `validate:"max=255"`
}

// NewDonationService creates a DonationService instance.
func NewDonationService(st store.Store, log *logger.Logger) *DonationService {
	return &DonationService{
		store: st,
		log:   log.With("service", "DonationService"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordOneTime validates and stores a one-time donation. A transaction id
// that was already recorded fails with ErrDuplicateTransaction and nothing
// is written.
func (s *DonationService) RecordOneTime(ctx context.Context, input OneTimeDonationInput) (*db.Donation, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	if input.TransactionID == "" {
		return nil, invalidInput("transactionId", "is required")
	}
	input.DonorName = optionalString(input.DonorName)
	input.Email = optionalString(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := s.now()
	donation := db.Donation{
		DonorName:     input.DonorName,
		Email:         input.Email,
		Amount:        *input.Amount,
		TransactionID: input.TransactionID,
		Type:          db.DonationTypeOneTime,
		Status:        db.DonationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		exists, err := tx.Donations().ExistsByTransactionID(ctx, donation.TransactionID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateTransaction
		}
		if err := tx.Donations().Create(ctx, &donation); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				s.log.Warn("duplicate transaction rejected by unique index", "transactionId", donation.TransactionID)
				return ErrDuplicateTransaction
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("donation recorded", "donationId", donation.ID, "transactionId", donation.TransactionID, "amount", donation.Amount.StringFixed(2))
	return &donation, nil
}

// ValidatePayment reports whether a webhook call may proceed. It trusts the
// status string: no signature check and no call back to the provider.
func (s *DonationService) ValidatePayment(transactionID, status string) bool {
	return status == PaymentStatusApproved && transactionID != ""
}

// ConfirmPayment handles an approved webhook by marking the matching donation
// as confirmed. It returns (nil, nil) when no donation carries the
// transaction id yet, and ErrInvalidInput when ValidatePayment rejects the call.
func (s *DonationService) ConfirmPayment(ctx context.Context, transactionID, status string) (*db.Donation, error) {
	if !s.ValidatePayment(transactionID, status) {
		return nil, invalidInput("status", "is not approved")
	}

	var confirmed *db.Donation
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		donation, err := tx.Donations().FindByTransactionID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if donation.Status == db.DonationStatusConfirmed {
			confirmed = donation
			return nil
		}

		now := s.now()
		donation.Status = db.DonationStatusConfirmed
		donation.ConfirmedAt = &now
		donation.UpdatedAt = now
		if err := tx.Donations().Save(ctx, donation); err != nil {
			return err
		}
		confirmed = donation
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed == nil {
		s.log.Warn("approved payment has no matching donation", "transactionId", transactionID)
		return nil, nil
	}
	s.log.Info("payment confirmed", "donationId", confirmed.ID, "transactionId", transactionID)
	return confirmed, nil
}

// FindByTransactionID returns ErrDonationNotFound when nothing matches.
func (s *DonationService) FindByTransactionID(ctx context.Context, transactionID string) (*db.Donation, error) {
	donation, err := s.store.Donations().FindByTransactionID(ctx, strings.TrimSpace(transactionID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDonationNotFound
	}
	return donation, err
}

// List returns every donation.
func (s *DonationService) List(ctx context.Context) ([]db.Donation, error) {
	return s.store.Donations().FindAll(ctx)
}

// ListByType returns donations of one type.
func (s *DonationService) ListByType(ctx context.Context, donationType db.DonationType) ([]db.Donation, error) {
	if !donationType.Valid() {
		return nil, invalidInput("type", "is unknown")
	}
	return s.store.Donations().FindByType(ctx, donationType)
}

// History returns the most recent donations made with an email, newest first.
func (s *DonationService) History(ctx context.Context, email string, limit int) ([]db.Donation, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalidInput("email", "is required")
	}
	if limit <= 0 {
		limit = defaultDonationHistory
	}
	return s.store.Donations().FindRecentByEmail(ctx, email, limit)
}

// validateAmount enforces a positive amount with at most 8 integer and 2
// fraction digits.
func validateAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return invalidInput("amount", "is required")
	}
	if !amount.IsPositive() {
		return invalidInput("amount", "must be greater than 0")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return invalidInput("amount", "allows at most 2 fraction digits")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return invalidInput("amount", "allows at most 8 integer digits")
	}
	return nil
}
