// Package models defines the client-side data model of linked accounts and
// the in-memory session.
package models

import (
	"sort"
	"time"
)

// Credentials is what an account record remembers about how it can be
// re-authenticated. It is either SwitchableCredentials or TokenOnly; the
// unexported marker keeps other types out.
type Credentials interface {
	credentials()
}

// SwitchableCredentials are the phone/password pair captured at the last
// explicit login. The Switcher replays them to obtain a fresh token.
type SwitchableCredentials struct {
	Phone    string
	Password string
}

func (SwitchableCredentials) credentials() {}

// TokenOnly marks an account that was linked from a captured token and never
// supplied a password on this device.
type TokenOnly struct{}

func (TokenOnly) credentials() {}

// AccountRecord is one linked identity cached on the device.
type AccountRecord struct {
	// AccountID is the server-assigned identity key.
	AccountID string
	// MasterID is the account anchoring the group this record belongs to.
	MasterID string

	DisplayName string
	Phone       string
	Role        string

	// SessionToken is the last known valid bearer credential.
	SessionToken string

	Credentials Credentials

	UpdatedAt time.Time
}

// Switchable reports whether the record carries replayable credentials and
// returns them.
func (r AccountRecord) Switchable() (SwitchableCredentials, bool) {
	c, ok := r.Credentials.(SwitchableCredentials)
	if !ok || c.Phone == "" || c.Password == "" {
		return SwitchableCredentials{}, false
	}
	return c, true
}

// IsMaster reports whether the record anchors its own group.
func (r AccountRecord) IsMaster() bool {
	return r.AccountID != "" && r.AccountID == r.MasterID
}

// WithProfile returns a copy of r with the profile cache replaced by p.
// Empty profile fields keep the cached value.
func (r AccountRecord) WithProfile(p Profile) AccountRecord {
	if p.Name != "" {
		r.DisplayName = p.Name
	}
	if p.Phone != "" {
		r.Phone = p.Phone
	}
	if p.Role != "" {
		r.Role = p.Role
	}
	return r
}

// Profile is the user profile returned by the remote API.
type Profile struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// ProfileOf rebuilds a Profile from the cached fields of r.
func ProfileOf(r AccountRecord) Profile {
	return Profile{AccountID: r.AccountID, Name: r.DisplayName, Phone: r.Phone, Role: r.Role}
}

// SortMasterFirst orders records for display: the group's master first, the
// rest by display name then account id.
func SortMasterFirst(records []AccountRecord, masterID string) {
	sort.SliceStable(records, func(i, j int) bool {
		mi, mj := records[i].AccountID == masterID, records[j].AccountID == masterID
		if mi != mj {
			return mi
		}
		if records[i].DisplayName != records[j].DisplayName {
			return records[i].DisplayName < records[j].DisplayName
		}
		return records[i].AccountID < records[j].AccountID
	})
}
