package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/logger"
	"github.com/programalilian/backend/internal/store"
)

const defaultRecentMembers = 50

// MemberService handles member registration and subscription linking.
type MemberService struct {
	store store.Store
	log   *logger.Logger
	now   func() time.Time
}

// RegisterMemberInput lists every field accepted at registration. Phone and
// BirthDate are optional; blank optional strings are stored as NULL.
type RegisterMemberInput struct {
	FullName  string     `validate:"required,max=255"`
	Email     string     `validate:"required,email,max=255"`
	Phone     *string    `validate:"omitempty,max=20"`
	BirthDate *time.Time `validate:"-"`
}

type subscriptionInput struct {
	SubscriptionID string  `validate:"required,max=255"`
	PlanType       *string `validate:"omitempty,max=50"`
}

// NewMemberService creates a MemberService instance.
func NewMemberService(st store.Store, log *logger.Logger) *MemberService {
	return &MemberService{
		store: st,
		log:   log.With("service", "MemberService"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a member. The existence check is only an early exit: the
// unique index on email decides when two registrations race.
func (s *MemberService) Register(ctx context.Context, input RegisterMemberInput) (*db.Member, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = optionalString(input.Phone)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	exists, err := s.store.Members().ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	now := s.now()
	member := db.Member{
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		BirthDate: input.BirthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Members().Create(ctx, &member); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Warn("duplicate email rejected by unique index", "email", input.Email)
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.log.Info("member registered", "memberId", member.ID)
	return &member, nil
}

// AttachSubscription stores the external subscription id on a member and,
// when planType is given, the plan label.
func (s *MemberService) AttachSubscription(ctx context.Context, memberID uint, subscriptionID string, planType *string) (*db.Member, error) {
	input := subscriptionInput{
		SubscriptionID: strings.TrimSpace(subscriptionID),
		PlanType:       optionalString(planType),
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var updated *db.Member
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		member, err := tx.Members().FindByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		member.SubscriptionID = &input.SubscriptionID
		if input.PlanType != nil {
			member.SubscriptionPlan = input.PlanType
		}
		member.UpdatedAt = s.now()

		if err := tx.Members().Save(ctx, member); err != nil {
			return err
		}
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription attached", "memberId", memberID)
	return updated, nil
}

// FindByID returns ErrMemberNotFound when no member has the id.
func (s *MemberService) FindByID(ctx context.Context, id uint) (*db.Member, error) {
	member, err := s.store.Members().FindByID(ctx, id)
	return member, mapMemberErr(err)
}

// FindByEmail returns ErrMemberNotFound when no member has the email.
func (s *MemberService) FindByEmail(ctx context.Context, email string) (*db.Member, error) {
	member, err := s.store.Members().FindByEmail(ctx, strings.TrimSpace(email))
	return member, mapMemberErr(err)
}

// FindBySubscriptionID resolves the member linked to an external subscription.
func (s *MemberService) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db.Member, error) {
	member, err := s.store.Members().FindBySubscriptionID(ctx, strings.TrimSpace(subscriptionID))
	return member, mapMemberErr(err)
}

// List returns every member.
func (s *MemberService) List(ctx context.Context) ([]db.Member, error) {
	return s.store.Members().FindAll(ctx)
}

// ListRecent returns the newest members first. A non-positive limit uses 50.
func (s *MemberService) ListRecent(ctx context.Context, limit int) ([]db.Member, error) {
	if limit <= 0 {
		limit = defaultRecentMembers
	}
	return s.store.Members().FindRecent(ctx, limit)
}

// ListBySubscriptionPlan returns members on the given plan.
func (s *MemberService) ListBySubscriptionPlan(ctx context.Context, plan string) ([]db.Member, error) {
	return s.store.Members().FindBySubscriptionPlan(ctx, strings.TrimSpace(plan))
}

func mapMemberErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrMemberNotFound
	}
	return err
}
