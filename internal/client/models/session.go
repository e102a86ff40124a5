package models

// SessionState is the single active identity used for outbound API calls.
// The zero value is the logged-out state.
type SessionState struct {
	Authenticated bool
	AccountID     string
	Token         string
	Profile       *Profile
	// IsDirectLogin mirrors the persisted flag: true only right after an
	// explicit credential-entry login.
	IsDirectLogin bool
}

// LoginResult is what the remote API returns for a successful login.
type LoginResult struct {
	AccountID string `json:"accountId"`
	Token     string `json:"token"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// Profile converts the login payload into a Profile for phone.
func (r LoginResult) Profile(phone string) Profile {
	return Profile{AccountID: r.AccountID, Name: r.Name, Phone: phone, Role: r.Role}
}
