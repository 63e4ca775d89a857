package models

import "time"

// Intake is the immutable questionnaire snapshot an order was created
// from. It is never updated after creation; generation reads it as-is.
type Intake struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PayloadJSON string    `gorm:"type:longtext;not null" json:"payload_json"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
