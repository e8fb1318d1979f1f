package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/recurring"
	"fundbox/internal/services"
	"fundbox/internal/tasks"
)

const tickInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var locker recurring.Locker
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err := services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer cache.Close()
		locker = services.NewLocker(cache)
	} else {
		logrus.Warn("REDIS_URL not set, billing runs without advisory locks")
	}

	payments := services.NewPaymentService(db, services.NewYooKassaService(), services.NewMidtransService())

	tasks.Configure(tasks.Deps{
		Payments: payments,
		Locker:   locker,
		Mailer:   services.NewEmailService(),
	})
	tasks.DefineTasks()

	logrus.Info("worker started, waiting for next tick")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logrus.Info("shutting down worker")
		cancel()
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// run once at startup, then on the ticker
	processScheduledTasks(ctx, db)

	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, db)
		case <-ctx.Done():
			return
		}
	}
}

func processScheduledTasks(ctx context.Context, db *gorm.DB) {
	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pendingTasks).Error; err != nil {
		logrus.WithError(err).Error("failed to fetch pending tasks")
		return
	}

	if len(pendingTasks) == 0 {
		return
	}
	logrus.WithField("count", len(pendingTasks)).Info("pending tasks found")

	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, db, task)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, task models.ScheduledTask) {
	taskLog := logrus.WithFields(logrus.Fields{"task": task.TaskName, "task_id": task.ID})

	handler, found := tasks.GetHandler(task.TaskName)
	if !found {
		taskLog.Error("task handler not found, marking as failure")

		now := time.Now()
		db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		return
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	var startTime time.Time
	var status string
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		startTime = time.Now()
		result, err := handler(ctx, db, task)
		runtimeMS := int(time.Since(startTime).Milliseconds())

		status = "success"
		resultData := result
		if err != nil {
			status = "failure"
			resultData = map[string]interface{}{"error": err.Error()}
			taskLog.WithError(err).WithField("attempt", attempt).Error("task failed")
		} else {
			taskLog.Info("task completed")
		}

		db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           startTime,
			RuntimeMS:       runtimeMS,
			Status:          status,
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          resultData,
		})

		if status == "success" || ctx.Err() != nil {
			break
		}
	}

	updates := map[string]interface{}{"last_run": &startTime}

	if status != "success" {
		updates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeRecurring:
			nextDue := task.NextDue()
			// only reschedule forward, otherwise the task would fire
			// again on the next tick
			if nextDue.After(task.Due) {
				updates["status"] = models.ScheduledTaskStatusActive
				updates["due"] = nextDue
			} else {
				updates["status"] = models.ScheduledTaskStatusDone
			}
		default:
			updates["status"] = models.ScheduledTaskStatusDone
		}
	}

	db.Model(&task).Updates(updates)
}
