package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationType 区分单次捐款与订阅扣款。
type DonationType string

const (
	DonationTypeOneTime      DonationType = "ONE_TIME"
	DonationTypeSubscription DonationType = "SUBSCRIPTION"
)

// Valid 判断类型是否为已知枚举值。
func (t DonationType) Valid() bool {
	return t == DonationTypeOneTime || t == DonationTypeSubscription
}

// DonationStatus 记录支付回调的确认状态。
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusConfirmed DonationStatus = "CONFIRMED"
)

// Donation 定义了一笔到账的捐款
// TransactionID 来自支付平台，作为幂等键使用唯一索引
// 创建后除回调确认外不再修改
type Donation struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	DonorName     *string         `gorm:"size:255" json:"donorName"`
	Email         *string         `gorm:"size:255;index" json:"email"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	TransactionID string          `gorm:"size:255;not null;uniqueIndex" json:"transactionId"`
	Type          DonationType    `gorm:"size:20;not null;index" json:"type"`
	Status        DonationStatus  `gorm:"size:20;not null" json:"status"`
	ConfirmedAt   *time.Time      `json:"confirmedAt"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Donation) TableName() string {
	return "donations"
}
