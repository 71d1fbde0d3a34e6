package model

import "time"

// OAuthStateTTL bounds how long a connect flow may take
const OAuthStateTTL = 10 * time.Minute

// OAuthState correlates an OAuth redirect with the user that started it
type OAuthState struct {
	State     string    `json:"state"`
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}
