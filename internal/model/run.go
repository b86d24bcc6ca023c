package model

import "time"

// RunStatus is the state of a build run recorded in the graph artifact.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one build of the entity graph.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the counts a build produced.
type RunSummary struct {
	SnapshotsDir     string         `json:"snapshots_dir"`
	OutputDir        string         `json:"output_dir"`
	Snapshots        int            `json:"snapshots"`
	Mentions         int            `json:"mentions"`
	SkippedMentions  int            `json:"skipped_mentions"`
	SelfMentions     int            `json:"self_mentions"`
	FinancialRecords int            `json:"financial_records"`
	Entities         int            `json:"entities"`
	PublicEntities   int            `json:"public_entities"`
	PrivateEntities  int            `json:"private_entities"`
	WithFinancials   int            `json:"with_financials"`
	Relationships    int            `json:"relationships"`
	Merges           int            `json:"merges"`
	Industries       int            `json:"industries"`
	ByStrategy       map[string]int `json:"by_strategy,omitempty"`
	Duration         time.Duration  `json:"duration"`
}
