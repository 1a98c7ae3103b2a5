package model

import "time"

// Website is a single directory entry. Section holds the key of the owning
// Section rather than its numeric id.
type Website struct {
	ID          uint       `gorm:"primaryKey"`
	Name        string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	URL         string     `gorm:"column:url;size:2048;not null"`
	Tags        StringList `gorm:"column:tags"`
	CustomLogo  *string    `gorm:"size:2048"`
	Section     string     `gorm:"size:100;not null;index"`
	SortOrder   int        `gorm:"not null;default:0;index"`
	// RequestKey is the client idempotency key of the create request, if any.
	RequestKey *string `gorm:"size:100;uniqueIndex"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name used by the existing deployment.
func (Website) TableName() string {
	return "websites"
}

// OrderItem assigns a new sort position to one row.
type OrderItem struct {
	ID        uint
	SortOrder int
}
