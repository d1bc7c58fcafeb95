package model

import (
	"time"
)

// Narration is a single piece of text handed to a narrator during a tour.
type Narration struct {
	Token     string    `json:"token"` // Completion must echo it
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
