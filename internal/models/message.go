package models

import "time"

// Message is a single entry in the shared group thread
type Message struct {
	ID            string
	User          User
	Content       string
	Image         string // data URL or remote URL, empty when text only
	Timestamp     time.Time
	IsCurrentUser bool // derived from the viewing user, never stored
	Pending       bool // sent locally, not yet confirmed by the backend
}

// HasImage reports whether the message carries an image reference
func (m Message) HasImage() bool {
	return m.Image != ""
}
