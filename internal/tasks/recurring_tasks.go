package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/recurring"
)

// ProcessRecurringPaymentsTaskDef sweeps all recurring donation series
// and re-bills the ones that are due. The sweep is expected to run at
// least daily; running it more often is safe because the resolver and
// the processor are idempotent per (subscription, day).
type ProcessRecurringPaymentsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ProcessRecurringPaymentsTaskDef) TaskID() string {
	return "process_recurring_payments"
}

// CreateTask builds a daily recurring ScheduledTask for the sweep
func (t *ProcessRecurringPaymentsTaskDef) CreateTask(firstRun time.Time) (*models.ScheduledTask, error) {
	rule := "FREQ=DAILY"
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, firstRun, &rule, models.ScheduledTaskTypeRecurring, 3)
}

// HandleExecution enumerates candidates and charges the due ones.
// One failing candidate never aborts the sweep.
func (t *ProcessRecurringPaymentsTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	if deps.Payments == nil {
		return nil, fmt.Errorf("payment service is not configured")
	}

	store := recurring.NewGormStore(db)
	resolver := recurring.NewResolver(store)
	processor := recurring.NewProcessor(store, deps.Payments, deps.Locker)

	candidates, err := store.ListRecurringCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	charged := 0
	skipped := 0
	failed := 0
	var errors []string

	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		donation := &candidates[i]

		due, err := resolver.ShouldCreateNextPayment(ctx, donation)
		if err != nil {
			failed++
			errors = append(errors, fmt.Sprintf("donation %d: %v", donation.ID, err))
			continue
		}
		if !due {
			skipped++
			continue
		}

		result := processor.CreateRecurringPayment(ctx, donation)
		if result.Success {
			charged++
		} else {
			failed++
			errors = append(errors, fmt.Sprintf("donation %d: %s", donation.ID, result.Error))
		}
	}

	logrus.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"charged":    charged,
		"skipped":    skipped,
		"failed":     failed,
	}).Info("recurring payment sweep finished")

	result := map[string]interface{}{
		"status":     "success",
		"candidates": len(candidates),
		"charged":    charged,
		"skipped":    skipped,
		"failed":     failed,
	}
	if len(errors) > 0 {
		result["errors"] = errors
	}
	return result, nil
}

// ProcessRecurringPaymentsTask is the singleton instance
var ProcessRecurringPaymentsTask = &ProcessRecurringPaymentsTaskDef{}
