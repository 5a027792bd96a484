package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeParse = "resume:parse"
	TypeOptimizeRun = "optimization:run"
)

// ResumeParsePayload carries everything the parse worker needs to turn a
// completed upload into a Resume record.
type ResumeParsePayload struct {
	UserID        uint   `json:"user_id"`
	FileName      string `json:"file_name"`
	ObjectKey     string `json:"object_key"`
	FileSize      int64  `json:"file_size"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeParseTask 构造一个新的简历解析任务。
func NewResumeParseTask(p ResumeParsePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeParse, payload), nil
}

// OptimizeRunPayload identifies a pending JobOptimization record.
type OptimizeRunPayload struct {
	OptimizationID uint   `json:"optimization_id"`
	CorrelationID  string `json:"correlation_id"`
}

// NewOptimizeRunTask 构造一个新的简历优化任务。
func NewOptimizeRunTask(p OptimizeRunPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOptimizeRun, payload), nil
}
