package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"fundbox/internal/models"
	"fundbox/internal/recurring"
	"fundbox/internal/services"
)

// Deps holds the collaborators task handlers need beyond the database.
// The worker wires them once at startup.
type Deps struct {
	Payments *services.PaymentService
	Locker   recurring.Locker
	Mailer   *services.EmailService
}

var deps Deps

// Configure injects task dependencies; call before the worker loop
func Configure(d Deps) {
	deps = d
}

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

// parseArgs unmarshals a task's argument map into a typed struct
func parseArgs[T any](task models.ScheduledTask) (T, error) {
	var parsed T
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return parsed, fmt.Errorf("failed to marshal args: %w", err)
	}
	if err := json.Unmarshal(argsBytes, &parsed); err != nil {
		return parsed, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return parsed, nil
}
