package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"lemonade/internal/models"
	"lemonade/internal/services"
	"lemonade/internal/storage"
)

func TestNotificationService_NewestFirst(t *testing.T) {
	svc := services.NewNotificationService(storage.NewMemoryStore())

	svc.Append(models.Notification{ID: "n1", Title: "Order #LMN-00001 Confirmed"})
	svc.Append(models.Notification{ID: "n2", Title: "Order #LMN-00002 Confirmed"})

	list := svc.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "n1", list[1].ID)
}

func TestNotificationService_CapDropsOldest(t *testing.T) {
	svc := services.NewNotificationService(storage.NewMemoryStore())

	for i := 1; i <= models.NotificationCap+1; i++ {
		svc.Append(models.Notification{ID: fmt.Sprintf("n%d", i)})
	}

	list := svc.List()
	assert.Len(t, list, models.NotificationCap)
	assert.Equal(t, fmt.Sprintf("n%d", models.NotificationCap+1), list[0].ID)
	// The oldest entry fell off the end.
	for _, n := range list {
		assert.NotEqual(t, "n1", n.ID)
	}
}

func TestNotificationService_RestoresPersistedLog(t *testing.T) {
	store := storage.NewMemoryStore()

	first := services.NewNotificationService(store)
	first.Append(models.Notification{ID: "n1", Title: "Order #LMN-00001 Confirmed"})
	first.Append(models.Notification{ID: "n2", Title: "Order #LMN-00002 Confirmed"})

	second := services.NewNotificationService(store)
	list := second.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
}

func TestNotificationService_DiscardsCorruptLog(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Set(storage.KeyNotifications, "{not json")

	svc := services.NewNotificationService(store)
	assert.Empty(t, svc.List())
}

func TestNotificationService_ListReturnsCopy(t *testing.T) {
	svc := services.NewNotificationService(storage.NewMemoryStore())
	svc.Append(models.Notification{ID: "n1"})

	list := svc.List()
	list[0].ID = "mutated"

	assert.Equal(t, "n1", svc.List()[0].ID)
}
