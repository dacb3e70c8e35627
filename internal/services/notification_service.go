package services

import (
	"encoding/json"
	"log"

	"lemonade/internal/models"
	"lemonade/internal/storage"
)

// NotificationService keeps the capped, most-recent-first order
// notification log, persisted locally.
type NotificationService struct {
	store         storage.Store
	notifications []models.Notification
}

// NewNotificationService creates a NotificationService, restoring any
// persisted log. Corrupt data is discarded.
func NewNotificationService(store storage.Store) *NotificationService {
	s := &NotificationService{store: store}
	if raw, ok := store.Get(storage.KeyNotifications); ok {
		var entries []models.Notification
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			log.Printf("Discarding corrupt stored notifications: %v", err)
		} else {
			s.notifications = entries
		}
	}
	return s
}

// Append prepends a notification, persists the log and truncates it to
// the most recent entries. No deduplication is performed.
func (s *NotificationService) Append(n models.Notification) {
	s.notifications = append([]models.Notification{n}, s.notifications...)
	if len(s.notifications) > models.NotificationCap {
		s.notifications = s.notifications[:models.NotificationCap]
	}
	s.persist()
}

// List returns the full current log, newest first.
func (s *NotificationService) List() []models.Notification {
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *NotificationService) persist() {
	payload, err := json.Marshal(s.notifications)
	if err != nil {
		log.Printf("Failed to marshal notifications for persistence: %v", err)
		return
	}
	s.store.Set(storage.KeyNotifications, string(payload))
}
