package dto

import "github.com/guttosm/fxpulse/internal/domain/models"

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	DatasetRows  int                `json:"dataset_rows" example:"4200"`
	Instruments  []string           `json:"instruments" example:"EURUSD,GBPUSD"`
	LastCaptured string             `json:"last_captured,omitempty" example:"2025-09-17 14:00:00"`
	RecentRuns   []models.RunResult `json:"recent_runs"`
	RunLog       bool               `json:"run_log" example:"true"`
}
