package models

import "time"

// Bracelet is a provisioned NFC tag (table pulseras). A bracelet is created
// inactive out of band and flips to active exactly once, when its owner
// registers.
type Bracelet struct {
	ID        int64     `json:"id"`
	Serial    string    `json:"serial"`
	IsActive  bool      `json:"is_active"`
	PublicURL *string   `json:"public_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
