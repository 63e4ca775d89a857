package models

import "time"

// GenerationUsage is the append-only cost record for one successful
// generation call. Written after the plan itself; retried independently
// without affecting plan correctness.
type GenerationUsage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	Model        string    `gorm:"type:varchar(100);not null" json:"model"`
	TokensIn     int       `gorm:"not null;default:0" json:"tokens_in"`
	TokensOut    int       `gorm:"not null;default:0" json:"tokens_out"`
	CostEstimate float64   `gorm:"type:decimal(12,6);not null;default:0" json:"cost_estimate"`
	DurationMs   int64     `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
