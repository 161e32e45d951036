package domain

import "time"

type APIKey struct {
	ID        int64
	TokenHash string
	UserID    int64
	Name      string
	ExpiresAt *time.Time
}
