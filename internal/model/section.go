package model

import "time"

// Section groups related websites under a stable key such as "faucets".
type Section struct {
	ID          uint      `gorm:"primaryKey"`
	Key         string    `gorm:"uniqueIndex;size:100;not null"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	Icon        string    `gorm:"size:100"`
	SortOrder   int       `gorm:"not null;default:0;index"`
	IsActive    bool      `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name used by the existing deployment.
func (Section) TableName() string {
	return "sections"
}
