package dto

import "time"

// IDParam ID参数
type IDParam struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// ProjectPipelineParam /project/:id/pipeline/:pipelineId
type ProjectPipelineParam struct {
	ID         int64 `uri:"id" binding:"required,min=1"`
	PipelineID int64 `uri:"pipelineId" binding:"required,min=1"`
}

// ProjectJobParam /project/:id/job/:jobId
type ProjectJobParam struct {
	ID    int64 `uri:"id" binding:"required,min=1"`
	JobID int64 `uri:"jobId" binding:"required,min=1"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
