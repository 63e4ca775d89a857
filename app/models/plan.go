package models

import (
	"strings"
	"time"
)

// Plan holds the generated plan document for an order. The unique
// order_id index doubles as the generation guard: a non-empty document
// row is the sole marker that the expensive generation call already
// happened for this order.
type Plan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	DocumentJSON string    `gorm:"type:longtext;not null" json:"document_json"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasDocument reports whether this row counts as a completed generation.
func (p *Plan) HasDocument() bool {
	return p != nil && strings.TrimSpace(p.DocumentJSON) != ""
}
