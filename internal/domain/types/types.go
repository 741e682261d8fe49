// Package types contains the report types shared across the analysis stages.
package types

import "time"

// Status tags the outcome of one analysis stage.
type Status string

// Stage outcomes.
const (
	StatusAnalyzed         Status = "analyzed"
	StatusInsufficientData Status = "insufficient_data"
	StatusError            Status = "error"
)

// Stage names, also used as metric labels.
const (
	StageContent  = "content_similarity"
	StageTemporal = "temporal_patterns"
	StageBehavior = "user_behaviors"
	StageNetwork  = "network_structure"
	StageScoring  = "coordination_scoring"
)

// StageResult is embedded in every stage report.
type StageResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Method string `json:"method,omitempty"`
}

// Analyzed reports whether the stage produced usable output.
func (r StageResult) Analyzed() bool { return r.Status == StatusAnalyzed }

// Failed builds an error result carrying msg.
func Failed(msg string) StageResult {
	return StageResult{Status: StatusError, Error: msg}
}

// Insufficient builds an insufficient_data result.
func Insufficient() StageResult {
	return StageResult{Status: StatusInsufficientData}
}

// Report is the complete, JSON-serializable result of one analysis run.
type Report struct {
	BatchID           string                 `json:"batch_id"`
	AnalysisTimestamp time.Time              `json:"analysis_timestamp"`
	TotalUsers        int                    `json:"total_users"`
	TotalPosts        int                    `json:"total_posts"`
	Content           ContentReport          `json:"content_similarity"`
	Temporal          TemporalReport         `json:"temporal_patterns"`
	Behavior          BehaviorReport         `json:"user_behaviors"`
	Network           NetworkReport          `json:"network_structure"`
	Assessment        CoordinationAssessment `json:"coordination_analysis"`
}
