package model

import "time"

// User is the owning identity for accounts and transactions. Credentials are
// managed outside this service; only the profile lives here.
type User struct {
	ID        int64                  `json:"-"`
	UserID    string                 `json:"id"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Email     string                 `json:"email"`
	CreatedAt time.Time              `json:"created_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}
