package model

import "time"

// PostInput is the ingestion shape of a post. Timestamp is free-form and
// parsed at ingestion.
type PostInput struct {
	Content        string          `json:"content"`
	Timestamp      string          `json:"timestamp"`
	URL            string          `json:"url"`
	Likes          int             `json:"likes"`
	Shares         int             `json:"shares"`
	Hashtags       []string        `json:"hashtags"`
	Mentions       []string        `json:"mentions"`
	Classification *Classification `json:"classification,omitempty"`
}

// Classification is the opaque (label, confidence) attached by an upstream
// text classifier.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Post is an ingested, immutable post.
type Post struct {
	UserID       string    `json:"user_id"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	RawTimestamp string    `json:"raw_timestamp,omitempty"`
	// TimestampFallback is set when RawTimestamp could not be parsed and the
	// run start time was substituted.
	TimestampFallback bool            `json:"timestamp_fallback,omitempty"`
	URL               string          `json:"url,omitempty"`
	Likes             int             `json:"likes"`
	Shares            int             `json:"shares"`
	Hashtags          []string        `json:"hashtags,omitempty"`
	Mentions          []string        `json:"mentions,omitempty"`
	Classification    *Classification `json:"classification,omitempty"`
}

// TimelineEvent is the read-only projection of a Post used for temporal analysis.
type TimelineEvent struct {
	Timestamp time.Time
	UserID    string
	Content   string
	Hashtags  []string
	// Fallback marks a timestamp substituted at ingestion.
	Fallback bool
}

// TimelineEvent projects the post onto the timeline.
func (p Post) TimelineEvent() TimelineEvent {
	return TimelineEvent{
		Timestamp: p.Timestamp,
		UserID:    p.UserID,
		Content:   p.Content,
		Hashtags:  p.Hashtags,
		Fallback:  p.TimestampFallback,
	}
}
