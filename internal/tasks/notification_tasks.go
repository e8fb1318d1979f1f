package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/money"
)

// SendReceiptArgs defines the arguments for a receipt email task
type SendReceiptArgs struct {
	Email    string `json:"email"`
	OrgName  string `json:"org_name"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

// SendReceiptTaskDef emails a donation receipt. Queued as a task so a
// slow or failing SMTP server never blocks payment processing.
type SendReceiptTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SendReceiptTaskDef) TaskID() string {
	return "send_receipt"
}

// CreateTask builds a one-time ScheduledTask for this receipt
func (t *SendReceiptTaskDef) CreateTask(args SendReceiptArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution sends the receipt email
func (t *SendReceiptTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	if deps.Mailer == nil {
		return nil, fmt.Errorf("email service is not configured")
	}

	args, err := parseArgs[SendReceiptArgs](task)
	if err != nil {
		return nil, err
	}
	if args.Email == "" {
		return map[string]interface{}{"status": "skipped", "message": "no donor email"}, nil
	}

	amount := money.Amount(args.Amount).Format(args.Currency)
	if err := deps.Mailer.SendReceipt(args.Email, args.OrgName, amount); err != nil {
		return nil, err
	}

	return map[string]interface{}{"status": "success", "email": args.Email}, nil
}

// SendReceiptTask is the singleton instance
var SendReceiptTask = &SendReceiptTaskDef{}
