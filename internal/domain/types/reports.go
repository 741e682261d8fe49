package types

import "time"

// SimilarityGroup is a set of users posting near-duplicate text.
type SimilarityGroup struct {
	Users         []string `json:"users"`
	PostCount     int      `json:"post_count"`
	SampleContent string   `json:"sample_content"`
	UserCount     int      `json:"user_count"`
}

// ContentReport is the output of the content similarity stage.
type ContentReport struct {
	StageResult
	Groups        []SimilarityGroup `json:"similar_content_groups"`
	TotalGroups   int               `json:"total_groups_found"`
	PostsCompared int               `json:"posts_compared"`
}

// TemporalCluster is a burst of posts from distinct users.
type TemporalCluster struct {
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	PostCount       int       `json:"post_count"`
	UserCount       int       `json:"unique_users"`
	Users           []string  `json:"users"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// RegularPoster is a user whose posting cadence is too uniform to be organic.
type RegularPoster struct {
	UserID              string  `json:"user_id"`
	AvgIntervalHours    float64 `json:"avg_interval_hours"`
	IntervalStdDevHours float64 `json:"interval_variance"`
	PostCount           int     `json:"post_count"`
}

// TemporalReport is the output of the temporal pattern stage.
type TemporalReport struct {
	StageResult
	Clusters           []TemporalCluster `json:"temporal_clusters"`
	ClusterCount       int               `json:"suspicious_time_clusters"`
	RegularPosters     []RegularPoster   `json:"regular_posting_patterns"`
	FallbackTimestamps int               `json:"fallback_timestamps"`
}

// BehaviorRecord is the per-user behavior assessment.
type BehaviorRecord struct {
	UserID string `json:"user_id"`
	// RawScore is the unclamped sum of flag weights; Score is clamped to [0,1].
	RawScore       float64  `json:"raw_behavior_score"`
	Score          float64  `json:"behavior_score"`
	Flags          []string `json:"flags"`
	PostsPerDay    float64  `json:"posts_per_day"`
	FollowRatio    float64  `json:"follow_ratio"`
	AccountAgeDays int      `json:"account_age_days"`
}

// SuspiciousUser summarizes a user whose behavior score crossed the threshold.
type SuspiciousUser struct {
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	Score        float64  `json:"behavior_score"`
	PrimaryFlags []string `json:"primary_flags"`
	PostCount    int      `json:"post_count"`
}

// BehaviorReport is the output of the behavior stage.
type BehaviorReport struct {
	StageResult
	SuspiciousUsers []SuspiciousUser `json:"suspicious_users"`
	TotalSuspicious int              `json:"total_suspicious"`
	TotalUsers      int              `json:"total_users"`
	Records         []BehaviorRecord `json:"behavior_patterns"`
}

// NetworkComponent is a cluster of users linked by shared group membership.
type NetworkComponent struct {
	Users          []string `json:"users"`
	Size           int      `json:"size"`
	Density        float64  `json:"density"`
	SuspicionScore float64  `json:"suspicion_score"`
}

// NetworkReport is the output of the network structure stage.
type NetworkReport struct {
	StageResult
	Components       []NetworkComponent `json:"suspicious_components"`
	ComponentCount   int                `json:"connected_components"`
	TotalUsers       int                `json:"total_users_in_network"`
	TotalConnections int                `json:"total_connections"`
	InteractionEdges int                `json:"interaction_edges"`
	NetworkDensity   float64            `json:"network_density"`
}
