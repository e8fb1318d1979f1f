package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	RegisterHandler(ProcessRecurringPaymentsTask.TaskID(), ProcessRecurringPaymentsTask.HandleExecution)
	RegisterHandler(SendReceiptTask.TaskID(), SendReceiptTask.HandleExecution)
}
