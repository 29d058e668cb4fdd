package models

import (
	"time"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/shopspring/decimal"
)

// Music is an uploaded track and its counters.
type Music struct {
	ID             int64             `gorm:"primaryKey;autoIncrement"`
	Title          string            `gorm:"column:title;not null"`
	Description    *string           `gorm:"column:description"`
	Genre          *string           `gorm:"column:genre"`
	Duration       *int              `gorm:"column:duration"`
	FilePath       string            `gorm:"column:file_path;not null"`
	CoverImagePath *string           `gorm:"column:cover_image_path"`
	IsFree         bool              `gorm:"column:is_free;not null"`
	Price          decimal.Decimal   `gorm:"column:price;type:numeric(10,2);not null"`
	Status         enums.MusicStatus `gorm:"column:status;not null"`
	PlayCount      int64             `gorm:"column:play_count;not null"`
	DownloadCount  int64             `gorm:"column:download_count;not null"`
	ArtistID       int64             `gorm:"column:artist_id;not null;index"`
	Artist         *User             `gorm:"foreignKey:ArtistID"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      *time.Time        `gorm:"column:updated_at"`
}

func (Music) TableName() string { return "musics" }
