package model

import "time"

// Entry is a guestbook message. Region records where the write was accepted,
// which is always the primary region.
type Entry struct {
	ID        string    `json:"id" db:"id"`
	Author    string    `json:"author" db:"author"`
	Message   string    `json:"message" db:"message"`
	Region    string    `json:"region" db:"region"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
