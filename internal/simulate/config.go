package simulate

import (
	"time"

	"github.com/okian/coordwatch/internal/domain/types"
)

// Kind tells whether a batch carries a coordinated campaign.
type Kind string

// Batch kinds.
const (
	KindCampaign Kind = "campaign"
	KindOrganic  Kind = "organic"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Batches      int           // Number of batches to generate
	CampaignSize int           // Coordinated accounts per campaign batch
	OrganicSize  int           // Organic accounts per batch
	Workers      int           // Number of concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	Seed         int64         // Generator seed
	OutputFile   string        // Output file for generated batches, empty to skip
	Verbose      bool          // Log every verdict
}

// Outcome is the verdict returned for one generated batch.
type Outcome struct {
	BatchID   string          `json:"batch_id"`
	Kind      Kind            `json:"kind"`
	Score     float64         `json:"score"`
	RiskLevel types.RiskLevel `json:"risk_level"`
	Err       string          `json:"error,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	BatchesGenerated int
	BatchesSubmitted int
	BatchesFailed    int
	Mismatches       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
