package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/store/storetest"
	"github.com/shopspring/decimal"
)

func newDonationServiceForTest(t *testing.T) (*DonationService, *storetest.Memory) {
	t.Helper()
	mem := storetest.New()
	return NewDonationService(mem, logger.Nop()), mem
}

func amountPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	amount, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return &amount
}

func TestRecordOneTimeRejectsDuplicateTransaction(t *testing.T) {
	svc, mem := newDonationServiceForTest(t)
	ctx := context.Background()

	donation, err := svc.RecordOneTime(ctx, OneTimeDonationInput{Amount: amountPtr(t, "100.00"), TransactionID: "T1"})
	if err != nil {
		t.Fatalf("RecordOneTime returned error: %v", err)
	}
	if donation.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if donation.Type != db.DonationTypeOneTime || donation.Status != db.DonationStatusPending {
		t.Fatalf("expected pending one-time donation, got %s/%s", donation.Type, donation.Status)
	}
	if !donation.CreatedAt.Equal(donation.UpdatedAt) {
		t.Fatalf("expected createdAt == updatedAt, got %v and %v", donation.CreatedAt, donation.UpdatedAt)
	}

	_, err = svc.RecordOneTime(ctx, OneTimeDonationInput{Amount: amountPtr(t, "50.00"), TransactionID: "T1"})
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
	if mem.DonationCount() != 1 {
		t.Fatalf("expected exactly one row, got %d", mem.DonationCount())
	}

	stored, err := svc.FindByTransactionID(ctx, "T1")
	if err != nil {
		t.Fatalf("FindByTransactionID returned error: %v", err)
	}
	if !stored.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected original amount to be kept, got %s", stored.Amount)
	}
}

func TestRecordOneTimeValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		txn    string
		email  *string
	}{
		{name: "nil amount", txn: "T1"},
		{name: "zero amount", amount: "0", txn: "T1"},
		{name: "negative amount", amount: "-10.00", txn: "T1"},
		{name: "three fraction digits", amount: "10.005", txn: "T1"},
		{name: "nine integer digits", amount: "100000000", txn: "T1"},
		{name: "blank transaction", amount: "10.00", txn: "   "},
		{name: "bad email", amount: "10.00", txn: "T1", email: strPtr("nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem := newDonationServiceForTest(t)
			input := OneTimeDonationInput{TransactionID: tt.txn, Email: tt.email}
			if tt.amount != "" {
				input.Amount = amountPtr(t, tt.amount)
			}

			_, err := svc.RecordOneTime(context.Background(), input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if mem.DonationCount() != 0 {
				t.Fatalf("expected no rows, got %d", mem.DonationCount())
			}
		})
	}
}

func TestRecordOneTimeAcceptsBoundaryAmount(t *testing.T) {
	svc, _ := newDonationServiceForTest(t)

	donation, err := svc.RecordOneTime(context.Background(), OneTimeDonationInput{
		DonorName:     strPtr("Grace"),
		Email:         strPtr("grace@example.org"),
		Amount:        amountPtr(t, "99999999.99"),
		TransactionID: " T-max ",
	})
	if err != nil {
		t.Fatalf("RecordOneTime returned error: %v", err)
	}
	if donation.TransactionID != "T-max" {
		t.Fatalf("expected trimmed transaction id, got %q", donation.TransactionID)
	}
	if donation.DonorName == nil || *donation.DonorName != "Grace" {
		t.Fatalf("expected donor name, got %v", donation.DonorName)
	}
}

func TestValidatePayment(t *testing.T) {
	svc, _ := newDonationServiceForTest(t)

	tests := []struct {
		txn    string
		status string
		want   bool
	}{
		{txn: "T1", status: "approved", want: true},
		{txn: "T1", status: "pending", want: false},
		{txn: "T1", status: "Approved", want: false},
		{txn: "", status: "approved", want: false},
	}

	for _, tt := range tests {
		if got := svc.ValidatePayment(tt.txn, tt.status); got != tt.want {
			t.Fatalf("ValidatePayment(%q, %q) = %v, want %v", tt.txn, tt.status, got, tt.want)
		}
	}
}

func TestConfirmPayment(t *testing.T) {
	svc, mem := newDonationServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.RecordOneTime(ctx, OneTimeDonationInput{Amount: amountPtr(t, "25.00"), TransactionID: "T1"}); err != nil {
		t.Fatalf("RecordOneTime returned error: %v", err)
	}

	if _, err := svc.ConfirmPayment(ctx, "T1", "pending"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for pending status, got %v", err)
	}

	confirmedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return confirmedAt }

	confirmed, err := svc.ConfirmPayment(ctx, "T1", "approved")
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if confirmed == nil || confirmed.Status != db.DonationStatusConfirmed {
		t.Fatalf("expected confirmed donation, got %+v", confirmed)
	}
	if confirmed.ConfirmedAt == nil || !confirmed.ConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("expected confirmedAt %v, got %v", confirmedAt, confirmed.ConfirmedAt)
	}

	// 重复回调不改变确认时间
	svc.now = func() time.Time { return confirmedAt.Add(time.Hour) }
	again, err := svc.ConfirmPayment(ctx, "T1", "approved")
	if err != nil {
		t.Fatalf("ConfirmPayment returned error: %v", err)
	}
	if !again.ConfirmedAt.Equal(confirmedAt) {
		t.Fatalf("expected confirmation to be idempotent, got %v", again.ConfirmedAt)
	}

	unknown, err := svc.ConfirmPayment(ctx, "T-unknown", "approved")
	if err != nil || unknown != nil {
		t.Fatalf("expected (nil, nil) for unknown transaction, got %v, %v", unknown, err)
	}
	if mem.DonationCount() != 1 {
		t.Fatalf("expected webhook to never create rows, got %d", mem.DonationCount())
	}
}

func TestDonationHistoryAndListing(t *testing.T) {
	svc, mem := newDonationServiceForTest(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, txn := range []string{"T1", "T2", "T3"} {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		svc.now = func() time.Time { return at }
		_, err := svc.RecordOneTime(ctx, OneTimeDonationInput{
			Email:         strPtr("donor@example.org"),
			Amount:        amountPtr(t, "10.00"),
			TransactionID: txn,
		})
		if err != nil {
			t.Fatalf("RecordOneTime returned error: %v", err)
		}
	}
	if err := mem.Donations().Create(ctx, &db.Donation{
		Amount:        decimal.NewFromInt(30),
		TransactionID: "S1",
		Type:          db.DonationTypeSubscription,
		Status:        db.DonationStatusConfirmed,
	}); err != nil {
		t.Fatalf("seed subscription donation: %v", err)
	}

	history, err := svc.History(ctx, "donor@example.org", 2)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 || history[0].TransactionID != "T3" || history[1].TransactionID != "T2" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if _, err := svc.History(ctx, " ", 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank email, got %v", err)
	}

	subscriptions, err := svc.ListByType(ctx, db.DonationTypeSubscription)
	if err != nil || len(subscriptions) != 1 {
		t.Fatalf("expected one subscription donation, got %d, %v", len(subscriptions), err)
	}
	if _, err := svc.ListByType(ctx, db.DonationType("GIFT")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected four donations, got %d, %v", len(all), err)
	}

	if _, err := svc.FindByTransactionID(ctx, "missing"); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("expected ErrDonationNotFound, got %v", err)
	}
}

func TestRecordOneTimeRollsBackOnStoreFailure(t *testing.T) {
	svc, mem := newDonationServiceForTest(t)
	boom := errors.New("disk full")
	mem.FailWith = boom

	_, err := svc.RecordOneTime(context.Background(), OneTimeDonationInput{Amount: amountPtr(t, "5.00"), TransactionID: "T1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if mem.DonationCount() != 0 {
		t.Fatalf("expected no rows, got %d", mem.DonationCount())
	}
}
