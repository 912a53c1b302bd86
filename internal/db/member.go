package db

import "time"

// Member 定义了登记的会员（支持者）模型
// Email 全局唯一，由唯一索引兜底
// SubscriptionID 仅在外部支付平台创建订阅后写入，用于反查会员
type Member struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	FullName         string     `gorm:"size:255;not null" json:"fullName"`
	Email            string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone            *string    `gorm:"size:20" json:"phone"`
	BirthDate        *time.Time `gorm:"type:date" json:"birthDate"`
	SubscriptionPlan *string    `gorm:"size:50;index" json:"subscriptionPlan"`
	SubscriptionID   *string    `gorm:"size:255;index" json:"subscriptionId"`
	CreatedAt        time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Member) TableName() string {
	return "members"
}

// HasSubscription 表示会员是否已经关联外部订阅。
func (m Member) HasSubscription() bool {
	return m.SubscriptionID != nil && *m.SubscriptionID != ""
}
