package db

import "time"

// Content 定义了站点可编辑的内容块（首页横幅、活动、社交动态等）
// Section 为自由文本的分类键，例如 hero、events、social-posts
// ImageData 与 ImageType 成对出现，只在存在图片字节时有意义
type Content struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Section     string    `gorm:"size:100;not null;index" json:"section"`
	Subtype     string    `gorm:"size:100" json:"subtype"`
	Title       string    `gorm:"size:1000" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	Subtitle    string    `gorm:"type:text" json:"subtitle"`
	ImageData   []byte    `json:"-"`
	ImageType   string    `gorm:"size:100" json:"imageType"`
	ButtonText1 string    `json:"buttonText1"`
	ButtonURL1  string    `json:"buttonUrl1"`
	ButtonText2 string    `json:"buttonText2"`
	ButtonURL2  string    `json:"buttonUrl2"`
	Date        string    `json:"date"`
	Link        string    `json:"link"`
	Published   bool      `gorm:"not null;index" json:"published"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Content) TableName() string {
	return "contents"
}

// HasImage 表示内容是否附带图片。
func (c Content) HasImage() bool {
	return len(c.ImageData) > 0
}
