package models

import "time"

// Member holds the session state modeled locally: a login flag only.
// No profile data is kept in this repo; the backend owns it.
type Member struct {
	LoggedIn bool `json:"loggedIn"`
}

// Notification is one push message delivered over the notification stream.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
