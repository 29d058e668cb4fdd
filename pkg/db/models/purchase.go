package models

import (
	"time"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/shopspring/decimal"
)

// Purchase grants a client download rights on a paid music.
type Purchase struct {
	ID            int64               `gorm:"primaryKey;autoIncrement"`
	ClientID      int64               `gorm:"column:client_id;not null;index"`
	MusicID       int64               `gorm:"column:music_id;not null;index"`
	PaymentCodeID *int64              `gorm:"column:payment_code_id"`
	AmountPaid    decimal.Decimal     `gorm:"column:amount_paid;type:numeric(10,2);not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null"`
	DownloadCount int                 `gorm:"column:download_count;not null"`
	MaxDownloads  int                 `gorm:"column:max_downloads;not null"`
	PurchasedAt   time.Time           `gorm:"column:purchased_at;not null"`
	Music         *Music              `gorm:"foreignKey:MusicID"`
}

func (Purchase) TableName() string { return "purchases" }

// DownloadLog records one served download of a purchase.
type DownloadLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	PurchaseID   int64     `gorm:"column:purchase_id;not null;index"`
	DownloadedAt time.Time `gorm:"column:downloaded_at;not null"`
	IPAddress    *string   `gorm:"column:ip_address"`
	UserAgent    *string   `gorm:"column:user_agent"`
}

func (DownloadLog) TableName() string { return "download_logs" }
