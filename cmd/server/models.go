package main

import (
	"time"

	"gorm.io/gorm"
)

// Match represents one match in the database. A reset starts a new one.
type Match struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"type:text;uniqueIndex" json:"slug"`
	Status    string    `gorm:"type:text;default:'active'" json:"status"`
	Winner    string    `gorm:"type:text" json:"winner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Tags  []Tag  `gorm:"foreignKey:MatchID" json:"tags,omitempty"`
	Moves []Move `gorm:"foreignKey:MatchID" json:"moves,omitempty"`
}

// Tag represents match metadata tags
type Tag struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID   int64     `gorm:"index;not null" json:"match_id"`
	Key       string    `gorm:"type:text" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Move represents an applied move in a match
type Move struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MatchID   int64     `gorm:"index;not null" json:"match_id"`
	Number    int64     `gorm:"not null" json:"number"`
	Player    string    `gorm:"type:text;not null" json:"player"`
	Square    string    `gorm:"type:text;not null" json:"from"`
	Command   string    `gorm:"type:text;not null" json:"command"`
	Captured  string    `gorm:"type:text" json:"captured,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Match statuses.
const (
	statusActive   = "active"
	statusFinished = "finished"
	statusAbandon  = "abandoned"
)

// AutoMigrate runs the database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Match{}, &Tag{}, &Move{})
}
