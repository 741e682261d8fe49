package model

import "time"

// Snapshot is the frozen input of one analysis run. Analyzers only read it.
type Snapshot struct {
	BatchID   string
	StartedAt time.Time

	// Profiles in registration order.
	Profiles []UserProfile
	// Posts across all users: registration order of users, then post order.
	Posts []Post
	// Timeline holds one event per post, in the same order as Posts.
	Timeline []TimelineEvent
	// Interactions keyed by source user id.
	Interactions map[string][]Interaction

	// FallbackTimestamps counts posts whose timestamp was substituted.
	FallbackTimestamps int
}

// UserCount returns the number of registered users.
func (s *Snapshot) UserCount() int { return len(s.Profiles) }

// PostCount returns the number of posts across all users.
func (s *Snapshot) PostCount() int { return len(s.Posts) }
