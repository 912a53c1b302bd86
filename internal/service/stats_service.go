package service

import (
	"context"
	"time"

	"github.com/programalilian/backend/internal/db"
	"github.com/programalilian/backend/internal/store"
	"github.com/shopspring/decimal"
)

// AdminStats 汇总后台首页展示的计数。
type AdminStats struct {
	TotalMembers        int64           `json:"totalMembers"`
	ActiveSubscriptions int64           `json:"activeSubscriptions"`
	TotalDonations      int64           `json:"totalDonations"`
	TotalDonationAmount decimal.Decimal `json:"totalDonationAmount"`
}

// DonationSummary 描述某个时间窗口内的捐款统计，From/To 为空表示不设边界。
type DonationSummary struct {
	From              *time.Time      `json:"from,omitempty"`
	To                *time.Time      `json:"to,omitempty"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	OneTimeCount      int64           `json:"oneTimeCount"`
	SubscriptionCount int64           `json:"subscriptionCount"`
}

// StatsService 负责会员与捐款的聚合统计。
type StatsService struct {
	store store.Store
}

// NewStatsService 创建 StatsService。
func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// Overview 返回会员总数、有效订阅数与捐款总额。
func (s *StatsService) Overview(ctx context.Context) (*AdminStats, error) {
	members, err := s.store.Members().Count(ctx)
	if err != nil {
		return nil, err
	}
	subscriptions, err := s.store.Members().CountWithSubscription(ctx)
	if err != nil {
		return nil, err
	}
	donations, err := s.store.Donations().Count(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Donations().SumAmountBetween(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalMembers:        members,
		ActiveSubscriptions: subscriptions,
		TotalDonations:      donations,
		TotalDonationAmount: total,
	}, nil
}

// DonationSummary 统计 [from, to] 区间内的金额与各类型笔数。
func (s *StatsService) DonationSummary(ctx context.Context, from, to *time.Time) (*DonationSummary, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, invalidInput("from", "must not be after to")
	}

	total, err := s.store.Donations().SumAmountBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	oneTime, err := s.store.Donations().CountByTypeBetween(ctx, db.DonationTypeOneTime, from, to)
	if err != nil {
		return nil, err
	}
	subscription, err := s.store.Donations().CountByTypeBetween(ctx, db.DonationTypeSubscription, from, to)
	if err != nil {
		return nil, err
	}

	return &DonationSummary{
		From:              from,
		To:                to,
		TotalAmount:       total,
		OneTimeCount:      oneTime,
		SubscriptionCount: subscription,
	}, nil
}
