package domain

import "time"

// LibraryEntry is an album a user saved.
type LibraryEntry struct {
	UserID   string    `json:"user_id"`
	AlbumID  string    `json:"album_id"`
	Name     string    `json:"name"`
	CoverURL string    `json:"cover_url"`
	Artists  []string  `json:"artists"`
	SavedAt  time.Time `json:"saved_at"`
}
