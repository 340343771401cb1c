package types

import (
	"encoding/json"
	"time"
)

// User represents a registered account in the system.
// Identity comes from the external SSO service; RemoteID is the external
// identifier assigned there and is the value the authorization authority
// understands. Profile attributes live in a free-form Data document.
type User struct {
	// ID is the internal numeric identifier of the user.
	ID int64 `json:"id" db:"id"`

	// RemoteID is the unique identifier of the user in the external
	// identity system.
	RemoteID string `json:"remote_id" db:"remote_id"`

	// Data is the user's profile document (display name, consent flags,
	// free-form attributes). Stored as jsonb.
	Data json.RawMessage `json:"data" db:"data"`

	// CreatedAt is the timestamp when the account row was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the row.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
