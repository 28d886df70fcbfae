package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/queue"
)

// failingStore fails the first `fail` inserts, then succeeds.
type failingStore struct {
	fail   int
	calls  int
	nextID uint64
}

func (s *failingStore) Insert(_ context.Context, n model.Notification) (model.Notification, error) {
	s.calls++
	if s.fail > 0 {
		s.fail--
		return model.Notification{}, errors.New("insert failed")
	}
	s.nextID++
	n.ID = s.nextID
	n.CreatedAt = time.Now().UTC()
	return n, nil
}

func capturingNotifier(store Store) (*Notifier, *[]queue.NotificationCreatedEvent) {
	var published []queue.NotificationCreatedEvent
	n := &Notifier{
		Store: store,
		publish: func(_ context.Context, ev queue.NotificationCreatedEvent) error {
			published = append(published, ev)
			return nil
		},
	}
	return n, &published
}

func TestRecordPublishesStoredEvent(t *testing.T) {
	store := &failingStore{}
	n, published := capturingNotifier(store)

	orderID := uint64(7)
	n.Record(context.Background(), 1, model.NotificationOrderStatus,
		"Order shipped", "on its way",
		map[string]interface{}{"order_id": orderID}, &orderID)

	if store.calls != 1 {
		t.Fatalf("insert calls = %d, want 1", store.calls)
	}
	if len(*published) != 1 {
		t.Fatalf("published %d events, want 1", len(*published))
	}
	ev := (*published)[0]
	if ev.UserID != 1 || ev.Type != model.NotificationOrderStatus || ev.OrderID != orderID {
		t.Errorf("published event = %+v", ev)
	}
	if ev.NotificationID == 0 {
		t.Error("published event carries no stored id")
	}
}

func TestRecordRetriesInsertOnce(t *testing.T) {
	store := &failingStore{fail: 1}
	n, published := capturingNotifier(store)

	n.Record(context.Background(), 1, model.NotificationGeneric, "t", "m", nil, nil)

	if store.calls != 2 {
		t.Errorf("insert calls = %d, want 2 (one retry)", store.calls)
	}
	if len(*published) != 1 {
		t.Errorf("published %d events, want 1", len(*published))
	}
}

func TestRecordDropsAfterSecondFailure(t *testing.T) {
	store := &failingStore{fail: 2}
	n, published := capturingNotifier(store)

	// Must not panic and must not escalate.
	n.Record(context.Background(), 1, model.NotificationGeneric, "t", "m", nil, nil)

	if store.calls != 2 {
		t.Errorf("insert calls = %d, want 2 (no third attempt)", store.calls)
	}
	if len(*published) != 0 {
		t.Errorf("published %d events for a dropped notification, want 0", len(*published))
	}
}

func TestCreateReportsFailureAndSkipsPublish(t *testing.T) {
	store := &failingStore{fail: 2}
	n, published := capturingNotifier(store)

	_, err := n.Create(context.Background(), model.Notification{UserID: 1, Type: model.NotificationSystemAlert, Title: "t"})
	if err == nil {
		t.Fatal("Create() returned nil for a failed insert")
	}
	if len(*published) != 0 {
		t.Errorf("published %d events for a failed insert, want 0", len(*published))
	}
}

func TestCreatePublishesLikeDomainPath(t *testing.T) {
	store := &failingStore{}
	n, published := capturingNotifier(store)

	stored, err := n.Create(context.Background(), model.Notification{
		UserID: 9, Type: model.NotificationSystemAlert, Title: "Maintenance", Message: "tonight",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(*published) != 1 {
		t.Fatalf("published %d events, want 1", len(*published))
	}
	ev := (*published)[0]
	if ev.NotificationID != stored.ID || ev.UserID != 9 || ev.Title != "Maintenance" {
		t.Errorf("published event = %+v, stored = %+v", ev, stored)
	}
}
