package models

import "time"

// Cursor is a collaborator's live pointer inside a trip room. Cursors are
// never persisted; they live in the presence view and expire when not
// refreshed within the staleness window.
type Cursor struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Coordinate  Coordinate `json:"coordinate"`
	Color       string     `json:"color"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
