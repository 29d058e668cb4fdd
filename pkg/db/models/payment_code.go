package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentCode is a single-use purchase voucher bound to one music.
type PaymentCode struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	Code           string          `gorm:"column:code;not null;uniqueIndex"`
	MusicID        int64           `gorm:"column:music_id;not null;index"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsUsed         bool            `gorm:"column:is_used;not null"`
	ExpiresAt      time.Time       `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UsedAt         *time.Time      `gorm:"column:used_at"`
	UsedByClientID *int64          `gorm:"column:used_by_client_id"`
}

func (PaymentCode) TableName() string { return "payment_codes" }

// Usable reports whether the code can still be redeemed at now.
func (p PaymentCode) Usable(now time.Time) bool {
	return !p.IsUsed && now.Before(p.ExpiresAt)
}
