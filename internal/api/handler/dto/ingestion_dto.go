package dto

import "loan-engine/internal/ingestion"

type JobAcceptedResponse struct {
	JobID  string          `json:"job_id"`
	Kind   ingestion.Kind  `json:"kind"`
	Status ingestion.State `json:"status"`
}

func NewJobAcceptedResponse(req ingestion.JobRequest) JobAcceptedResponse {
	return JobAcceptedResponse{JobID: req.JobID, Kind: req.Kind, Status: ingestion.StateQueued}
}
