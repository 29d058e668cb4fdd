package models

import "time"

// Favorite bookmarks a music for a user.
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	MusicID   int64     `gorm:"column:music_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	Music     *Music    `gorm:"foreignKey:MusicID"`
}

func (Favorite) TableName() string { return "favorites" }

// PlayHistory is one listening session.
type PlayHistory struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	UserID         int64     `gorm:"column:user_id;not null;index"`
	MusicID        int64     `gorm:"column:music_id;not null"`
	PlayedAt       time.Time `gorm:"column:played_at;not null"`
	DurationPlayed int       `gorm:"column:duration_played;not null"`
	Music          *Music    `gorm:"foreignKey:MusicID"`
}

func (PlayHistory) TableName() string { return "play_history" }
