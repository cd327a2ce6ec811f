package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeProfitabilityExport is the task type for generating a queued
	// profitability workbook.
	TaskTypeProfitabilityExport = "report:profitability_export"
	// TaskTypeExportCleanup is the task type for purging expired exports.
	TaskTypeExportCleanup = "report:export_cleanup"
)

// ProfitabilityExportPayload identifies the export request to generate.
type ProfitabilityExportPayload struct {
	RequestID string `json:"request_id"`
}

// NewProfitabilityExportTask constructs an Asynq task.
func NewProfitabilityExportTask(payload ProfitabilityExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProfitabilityExport, data), nil
}

// NewExportCleanupTask constructs the scheduled retention task. It carries no
// payload; the retention window is worker configuration.
func NewExportCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExportCleanup, nil)
}
