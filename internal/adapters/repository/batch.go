package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/okian/coordwatch/internal/domain/model"
)

// userRecord is everything registered for one account.
type userRecord struct {
	profile      model.UserProfile
	posts        []model.Post
	interactions []model.Interaction
}

// Batch is the in-memory Store for one analysis run.
type Batch struct {
	mu        sync.RWMutex
	batchID   string
	startedAt time.Time
	order     []string // first-registration order
	users     map[string]*userRecord
	fallbacks int
}

var _ Store = (*Batch)(nil)

// NewBatch creates an empty Data Store. The start time defaults to now.
func NewBatch(opts ...Option) *Batch {
	b := &Batch{
		startedAt: time.Now().UTC(),
		users:     make(map[string]*userRecord),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromInput builds a Data Store from a wire batch.
func FromInput(ctx context.Context, in model.Batch, opts ...Option) (*Batch, error) {
	b := NewBatch(append([]Option{WithBatchID(in.BatchID)}, opts...)...)
	for i, u := range in.Users {
		if err := b.AddUser(ctx, u.UserID, u.Profile, u.Posts, u.Interactions); err != nil {
			return nil, fmt.Errorf("user #%d: %w", i, err)
		}
	}
	return b, nil
}

// AddUser registers one account. The only rejected input is an empty id;
// malformed profile fields are defaulted.
func (b *Batch) AddUser(_ context.Context, userID string, profile model.ProfileInput, posts []model.PostInput, interactions []model.Interaction) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUserID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec := &userRecord{
		profile:      b.toProfile(userID, profile, len(posts)),
		posts:        make([]model.Post, 0, len(posts)),
		interactions: append([]model.Interaction(nil), interactions...),
	}
	for _, p := range posts {
		rec.posts = append(rec.posts, b.toPost(userID, p))
	}

	if old, ok := b.users[userID]; ok {
		b.fallbacks -= countFallbacks(old.posts)
	} else {
		b.order = append(b.order, userID)
	}
	b.users[userID] = rec
	b.fallbacks += countFallbacks(rec.posts)
	return nil
}

// Snapshot returns a deep copy of the registered data.
func (b *Batch) Snapshot(_ context.Context) model.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := model.Snapshot{
		BatchID:            b.batchID,
		StartedAt:          b.startedAt,
		Profiles:           make([]model.UserProfile, 0, len(b.order)),
		Interactions:       make(map[string][]model.Interaction),
		FallbackTimestamps: b.fallbacks,
	}
	for _, id := range b.order {
		rec := b.users[id]
		snap.Profiles = append(snap.Profiles, rec.profile)
		for _, p := range rec.posts {
			p.Hashtags = append([]string(nil), p.Hashtags...)
			p.Mentions = append([]string(nil), p.Mentions...)
			snap.Posts = append(snap.Posts, p)
			snap.Timeline = append(snap.Timeline, p.TimelineEvent())
		}
		if len(rec.interactions) > 0 {
			snap.Interactions[id] = append([]model.Interaction(nil), rec.interactions...)
		}
	}
	return snap
}

// UserCount returns the number of registered users.
func (b *Batch) UserCount(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// BatchID returns the run identifier.
func (b *Batch) BatchID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.batchID
}

func (b *Batch) toProfile(userID string, in model.ProfileInput, postCount int) model.UserProfile {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = userID
	}
	return model.UserProfile{
		UserID:         userID,
		Username:       username,
		FollowerCount:  max(0, in.FollowerCount),
		FollowingCount: max(0, in.FollowingCount),
		AccountAgeDays: max(1, in.AccountAgeDays),
		Bio:            in.Bio,
		Verified:       in.Verified,
		PostCount:      postCount,
		BotEstimate:    in.BotEstimate,
	}
}

func (b *Batch) toPost(userID string, in model.PostInput) model.Post {
	ts, ok := parseTimestamp(in.Timestamp)
	if !ok {
		ts = b.startedAt
	}
	return model.Post{
		UserID:            userID,
		Content:           in.Content,
		Timestamp:         ts,
		RawTimestamp:      in.Timestamp,
		TimestampFallback: !ok,
		URL:               in.URL,
		Likes:             in.Likes,
		Shares:            in.Shares,
		Hashtags:          append([]string(nil), in.Hashtags...),
		Mentions:          append([]string(nil), in.Mentions...),
		Classification:    in.Classification,
	}
}

// parseTimestamp reads raw as an absolute instant. Timestamps without a zone
// are taken as UTC.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func countFallbacks(posts []model.Post) int {
	n := 0
	for _, p := range posts {
		if p.TimestampFallback {
			n++
		}
	}
	return n
}
