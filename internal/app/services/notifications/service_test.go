package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage/memory"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
)

func TestNotifyRequiresRecipient(t *testing.T) {
	svc := New(memory.New(), nil)
	if _, err := svc.Notify(context.Background(), "  ", "t", "m"); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListForScopesRecipient(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	if _, err := svc.Notify(ctx, "user-1", "yours", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := svc.Notify(ctx, "user-2", "theirs", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := svc.Notify(ctx, notification.RecipientAdmin, "admin only", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	got, err := svc.ListFor(ctx, identity.Actor{ID: "user-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Title != "yours" {
		t.Fatalf("expected only user-1 notifications, got %+v", got)
	}

	adminView, err := svc.ListFor(ctx, identity.Actor{ID: "admin-1", IsAdmin: true})
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	if len(adminView) != 1 || adminView[0].Title != "admin only" {
		t.Fatalf("admin must read the role mailbox, got %+v", adminView)
	}
}

func TestMarkAllReadSnapshotSemantics(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	first, err := svc.Notify(ctx, "user-1", "a", "m")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	second, err := svc.Notify(ctx, "user-1", "b", "m")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	snapshot := []notification.Notification{first, second}

	// A notification arriving after the snapshot must stay unread.
	late, err := svc.Notify(ctx, "user-1", "late", "m")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	marked, err := svc.MarkAllRead(ctx, snapshot)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 2 {
		t.Fatalf("expected 2 marked, got %d", marked)
	}

	all, err := store.ListNotifications(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, n := range all {
		switch n.ID {
		case late.ID:
			if n.Read {
				t.Fatal("late arrival must stay unread")
			}
		default:
			if !n.Read {
				t.Fatalf("notification %s should be read", n.ID)
			}
		}
	}
}

func TestMarkAllReadToleratesDeleted(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	kept, err := svc.Notify(ctx, "user-1", "kept", "m")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	ghost := notification.Notification{ID: "gone", Recipient: "user-1"}
	marked, err := svc.MarkAllRead(ctx, []notification.Notification{ghost, kept})
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 1 {
		t.Fatalf("expected 1 marked, got %d", marked)
	}
}

func TestSortNewestFirstAndUnread(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	list := []notification.Notification{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Minute), Read: true},
		{ID: "mid", CreatedAt: base.Add(time.Second)},
	}

	SortNewestFirst(list)
	if list[0].ID != "new" || list[1].ID != "mid" || list[2].ID != "old" {
		t.Fatalf("unexpected order %v", []string{list[0].ID, list[1].ID, list[2].ID})
	}
	if got := Unread(list); got != 2 {
		t.Fatalf("expected 2 unread, got %d", got)
	}
}
