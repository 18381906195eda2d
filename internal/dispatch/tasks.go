// Package dispatch moves due follow-up touches onto the asynq queue so that
// notification consumers and dashboards hear about them. Enqueueing is
// notify-only; every state change still goes through the scheduling service.
package dispatch

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskFollowUpDue = "followup.touch.due"

type FollowUpDuePayload struct {
	LeadID   string    `json:"leadId"`
	StepCode string    `json:"stepCode"`
	DueAt    time.Time `json:"dueAt"`
}

func NewFollowUpDueTask(payload FollowUpDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpDue, data), nil
}

func ParseFollowUpDuePayload(task *asynq.Task) (FollowUpDuePayload, error) {
	var payload FollowUpDuePayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
