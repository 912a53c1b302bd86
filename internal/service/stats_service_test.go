package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/store/storetest"
	"github.com/shopspring/decimal"
)

func seedDonation(t *testing.T, mem *storetest.Memory, txn, amount string, kind db.DonationType, at time.Time) {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", amount, err)
	}
	donation := db.Donation{
		Amount:        value,
		TransactionID: txn,
		Type:          kind,
		Status:        db.DonationStatusPending,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	if err := mem.Donations().Create(context.Background(), &donation); err != nil {
		t.Fatalf("seed donation %s: %v", txn, err)
	}
}

func TestStatsOverviewOnEmptyStore(t *testing.T) {
	svc := NewStatsService(storetest.New())

	stats, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if stats.TotalMembers != 0 || stats.TotalDonations != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
	if !stats.TotalDonationAmount.IsZero() {
		t.Fatalf("expected zero total, got %s", stats.TotalDonationAmount)
	}
}

func TestStatsOverviewAndSummary(t *testing.T) {
	mem := storetest.New()
	svc := NewStatsService(mem)
	ctx := context.Background()

	sub := "sub-1"
	if err := mem.Members().Create(ctx, &db.Member{FullName: "Ada", Email: "ada@example.org", SubscriptionID: &sub}); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	if err := mem.Members().Create(ctx, &db.Member{FullName: "Grace", Email: "grace@example.org"}); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	seedDonation(t, mem, "T1", "100.00", db.DonationTypeOneTime, jan)
	seedDonation(t, mem, "T2", "20.50", db.DonationTypeSubscription, feb)
	seedDonation(t, mem, "T3", "15.00", db.DonationTypeOneTime, feb)

	stats, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if stats.TotalMembers != 2 || stats.ActiveSubscriptions != 1 || stats.TotalDonations != 3 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.TotalDonationAmount.Equal(decimal.RequireFromString("135.50")) {
		t.Fatalf("expected 135.50, got %s", stats.TotalDonationAmount)
	}

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.DonationSummary(ctx, &from, nil)
	if err != nil {
		t.Fatalf("DonationSummary returned error: %v", err)
	}
	if !summary.TotalAmount.Equal(decimal.RequireFromString("35.50")) {
		t.Fatalf("expected 35.50, got %s", summary.TotalAmount)
	}
	if summary.OneTimeCount != 1 || summary.SubscriptionCount != 1 {
		t.Fatalf("unexpected type counts: %+v", summary)
	}

	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.DonationSummary(ctx, &from, &to); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
}
