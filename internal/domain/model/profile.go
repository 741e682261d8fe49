// Package model contains domain models passed between layers.
package model

// ProfileInput is the ingestion shape of an account profile.
// Missing numeric fields decode to 0 and missing booleans to false.
type ProfileInput struct {
	Username       string       `json:"username"`
	FollowerCount  int          `json:"follower_count"`
	FollowingCount int          `json:"following_count"`
	AccountAgeDays int          `json:"account_age_days"`
	Bio            string       `json:"bio"`
	Verified       bool         `json:"verified"`
	BotEstimate    *BotEstimate `json:"bot_estimate,omitempty"`
}

// BotEstimate is the opaque verdict of an upstream bot-likelihood estimator.
// The behavior analyzer computes its own score and never reads it.
type BotEstimate struct {
	IsBot      bool     `json:"is_bot"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

// UserProfile is an ingested account. PostCount is derived from the posts
// registered alongside the profile.
type UserProfile struct {
	UserID         string       `json:"user_id"`
	Username       string       `json:"username"`
	FollowerCount  int          `json:"follower_count"`
	FollowingCount int          `json:"following_count"`
	AccountAgeDays int          `json:"account_age_days"` // always >= 1
	Bio            string       `json:"bio"`
	Verified       bool         `json:"verified"`
	PostCount      int          `json:"post_count"`
	BotEstimate    *BotEstimate `json:"bot_estimate,omitempty"`
}

// Interaction is an explicit action from one account towards another
// (like, share, reply, mention).
type Interaction struct {
	TargetUserID string `json:"target_user_id"`
	Kind         string `json:"kind"`
}

// UserInput bundles everything registered for one account.
type UserInput struct {
	UserID       string        `json:"user_id"`
	Profile      ProfileInput  `json:"profile"`
	Posts        []PostInput   `json:"posts"`
	Interactions []Interaction `json:"interactions,omitempty"`
}

// Batch is the wire shape of one analysis run.
type Batch struct {
	BatchID string      `json:"batch_id"`
	Users   []UserInput `json:"users"`
}

// PostCount returns the number of posts across all users of the batch.
func (b Batch) PostCount() int {
	n := 0
	for _, u := range b.Users {
		n += len(u.Posts)
	}
	return n
}
