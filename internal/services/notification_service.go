package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/logger"
	"budgeting/internal/models"
)

// notificationService dispatches lifecycle notifications.
type notificationService struct {
	db        *gorm.DB
	directory AccountDirectory
	sender    NotificationSender
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB, directory AccountDirectory, sender NotificationSender) NotificationServicer {
	return &notificationService{db: db, directory: directory, sender: sender}
}

// NotifyOnce claims (userID, task, objID) in the task notes and calls fire
// only when this call made the claim. A failing fire is logged and the
// claim is kept, so a notification is sent at most once. The returned error
// reports a failed claim only.
func (s *notificationService) NotifyOnce(ctx context.Context, userID uint, task string, objID uint, fire func(ctx context.Context) error) (bool, error) {
	note := &models.TaskNote{UserID: userID, Task: task, ObjID: objID, Count: 1}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(note)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := fire(ctx); err != nil {
		logger.Get().Errorw("failed to send notification",
			"error", err,
			"user_id", userID,
			"task", task,
			"obj_id", objID,
		)
	}
	return true, nil
}

// Notify sends one notification of kind to every device of the user.
func (s *notificationService) Notify(ctx context.Context, userID uint, kind NotificationType, data map[string]interface{}) error {
	tokens, err := s.directory.GetDeviceTokens(ctx, []uint{userID})
	if err != nil {
		return fmt.Errorf("loading device tokens: %w", err)
	}
	if tokens == nil {
		tokens = []string{}
	}

	payload := make(map[string]interface{}, len(data)+3)
	for k, v := range data {
		payload[k] = v
	}
	payload["user_id"] = userID
	payload["type"] = string(kind)
	payload["player_ids"] = tokens

	if err := s.sender.Send(ctx, payload); err != nil {
		return fmt.Errorf("sending %s notification: %w", kind, err)
	}
	return nil
}
