package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
)

func TestItemCRUD(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateItem(ctx, item.Item{OwnerID: "u1", OwnerEmail: "u1@example.com", Name: "proj", TechStack: "Go", Status: item.StatusPending})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and timestamp, got %+v", created)
	}

	created.OwnerID = "someone-else"
	created.Status = item.StatusVerified
	updated, err := store.UpdateItem(ctx, created)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.OwnerID != "u1" {
		t.Fatalf("owner must be immutable, got %s", updated.OwnerID)
	}
	if updated.Status != item.StatusVerified {
		t.Fatalf("expected Verified, got %s", updated.Status)
	}

	if err := store.DeleteItem(ctx, created.ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, err := store.GetItem(ctx, created.ID); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWatchItemsDeliversSnapshots(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.WatchItems(ctx, func(it item.Item) bool { return it.OwnerID == "u1" })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	snap := recvItems(t, ch)
	if len(snap) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d items", len(snap))
	}

	if _, err := store.CreateItem(ctx, item.Item{OwnerID: "u1", Name: "mine", TechStack: "Go", Status: item.StatusPending}); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := store.CreateItem(ctx, item.Item{OwnerID: "u2", Name: "theirs", TechStack: "Go", Status: item.StatusPending}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		var snap []item.Item
		select {
		case snap = <-ch:
		case <-deadline:
			t.Fatal("timed out waiting for filtered snapshot")
		}
		if len(snap) == 1 && snap[0].Name == "mine" {
			return
		}
	}
}

func TestWatchItemsCancelClosesChannel(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := store.WatchItems(ctx, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	recvItems(t, ch)

	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatchItemsLatestWins(t *testing.T) {
	store := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.WatchItems(ctx, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	recvItems(t, ch)

	// Mutate faster than the subscriber consumes; the final snapshot must
	// reflect the final state even if intermediates were replaced.
	for i := 0; i < 10; i++ {
		if _, err := store.CreateItem(ctx, item.Item{OwnerID: "u1", Name: "p", TechStack: "Go", Status: item.StatusPending}); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	deadline := time.After(time.Second)
	for {
		var snap []item.Item
		select {
		case snap = <-ch:
		case <-deadline:
			t.Fatal("timed out waiting for final snapshot")
		}
		if len(snap) == 10 {
			return
		}
	}
}

func TestMarkNotificationReadMonotonic(t *testing.T) {
	store := New()
	ctx := context.Background()

	n, err := store.CreateNotification(ctx, notification.Notification{Recipient: "u1", Title: "t", Message: "m"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.Read {
		t.Fatal("notifications must start unread")
	}

	marked, err := store.MarkNotificationRead(ctx, n.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !marked.Read {
		t.Fatal("expected read=true")
	}

	again, err := store.MarkNotificationRead(ctx, n.ID)
	if err != nil {
		t.Fatalf("mark read twice: %v", err)
	}
	if !again.Read {
		t.Fatal("read flag must stay true")
	}
}

func TestProfilesByEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.CreateProfile(ctx, profile.Profile{ID: "u1", Email: "User@Example.com"}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	p, err := store.GetProfileByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if p.ID != "u1" {
		t.Fatalf("expected u1, got %s", p.ID)
	}
}

func recvItems(t *testing.T, ch <-chan []item.Item) []item.Item {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
