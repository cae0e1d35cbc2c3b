package models

// Notification tasks recorded in TaskNote.
const (
	TaskFirstImportNotification = "first_import_transaction_notification"
	TaskOverBudgetNotification  = "over_budget_notification"
	TaskBudgetEndNotification   = "budget_end"
)

// TaskNote marks a one-time notification as already sent for
// (UserID, Task, ObjID).
type TaskNote struct {
	Base
	UserID uint   `gorm:"not null;uniqueIndex:idx_task_notes_claim" json:"user_id"`
	Task   string `gorm:"size:100;not null;uniqueIndex:idx_task_notes_claim" json:"task"`
	ObjID  uint   `gorm:"not null;uniqueIndex:idx_task_notes_claim" json:"obj_id"`
	Count  int    `gorm:"not null;default:1" json:"count"`
}
