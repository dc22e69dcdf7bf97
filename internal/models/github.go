package models

import "time"

// Comment is an issue comment on a pull request
type Comment struct {
	ID   int64
	Body string
	URL  string
}

// PullFile is a file changed by a pull request together with its unified diff
type PullFile struct {
	Filename string
	Patch    string
}

// ReviewComment is a comment anchored to a diff position
type ReviewComment struct {
	CommitID string
	Path     string
	Position int
	Body     string
}

// SigningKey is a GPG key published by a GitHub user
type SigningKey struct {
	KeyID     string
	RawKey    string
	CanSign   bool
	ExpiresAt *time.Time
}

// Usable returns true if the key can verify signatures at the given time
func (k SigningKey) Usable(now time.Time) bool {
	if k.RawKey == "" || !k.CanSign {
		return false
	}
	return k.ExpiresAt == nil || k.ExpiresAt.After(now)
}
