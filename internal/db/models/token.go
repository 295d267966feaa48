package models

import "time"

// HubstaffTokenKey is the primary key of the single authoritative token row.
const HubstaffTokenKey = "hubstaff"

// TokenRecord stores the bearer token pair for the time-tracking service account.
type TokenRecord struct {
	Key          string `gorm:"primaryKey"` // always HubstaffTokenKey
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix milliseconds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ExpiresAtTime converts ExpiresAt to a time.Time.
func (r *TokenRecord) ExpiresAtTime() time.Time {
	return time.UnixMilli(r.ExpiresAt)
}
