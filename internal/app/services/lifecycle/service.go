// Package lifecycle enforces the verification state machine on submitted
// items and fans the outcome out as notifications.
//
// States: Pending -> Verified | Rejected; Verified -> Minted. The single
// administrator may re-apply a decision or re-mint a terminal item; both are
// idempotent overrides that refresh feedback and, for minting, the receipt.
package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/notification"
	"github.com/ProvenDev-Labs/review_layer/internal/app/metrics"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/ledger"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/notifications"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Service applies lifecycle transitions to items.
type Service struct {
	items    storage.ItemStore
	notifier *notifications.Service
	recorder ledger.Recorder
	log      *logger.Logger
}

// New constructs a lifecycle service.
func New(items storage.ItemStore, notifier *notifications.Service, recorder ledger.Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("lifecycle")
	}
	return &Service{items: items, notifier: notifier, recorder: recorder, log: log}
}

// Submit creates a Pending item owned by the calling actor and notifies the
// administrator role.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, name, techStack, repoURL string) (item.Item, error) {
	name = strings.TrimSpace(name)
	techStack = strings.TrimSpace(techStack)
	if name == "" {
		return item.Item{}, apperrors.Validation("name is required")
	}
	if techStack == "" {
		return item.Item{}, apperrors.Validation("tech stack is required")
	}

	created, err := s.items.CreateItem(ctx, item.Item{
		OwnerID:    actor.ID,
		OwnerEmail: actor.Email,
		Name:       name,
		TechStack:  techStack,
		RepoURL:    strings.TrimSpace(repoURL),
		Status:     item.StatusPending,
	})
	if err != nil {
		return item.Item{}, fmt.Errorf("create item: %w", err)
	}

	if _, err := s.notifier.Notify(ctx, notification.RecipientAdmin,
		"New Project Submitted",
		fmt.Sprintf("%s submitted %q.", actor.Email, created.Name),
	); err != nil {
		return item.Item{}, err
	}

	metrics.ObserveTransition(string(item.StatusPending))
	s.log.Infof("item %s submitted by %s", created.ID, actor.ID)
	return created, nil
}

// Decide applies a Verified or Rejected outcome with reviewer feedback and
// notifies the owner. Re-deciding a terminal item is legal and simply
// refreshes outcome and feedback; a ledger receipt never survives a move
// away from Minted.
func (s *Service) Decide(ctx context.Context, actor identity.Actor, itemID string, outcome item.Status, feedback string) (item.Item, error) {
	if !actor.IsAdmin {
		return item.Item{}, apperrors.Unauthorized("only the administrator may decide submissions")
	}
	if !outcome.Decision() {
		return item.Item{}, apperrors.Validation("outcome must be %s or %s", item.StatusVerified, item.StatusRejected)
	}

	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return item.Item{}, err
	}

	it.Status = outcome
	it.Feedback = feedback
	it.LedgerReceipt = ""

	updated, err := s.items.UpdateItem(ctx, it)
	if err != nil {
		return item.Item{}, fmt.Errorf("apply decision: %w", err)
	}

	if _, err := s.notifier.Notify(ctx, updated.OwnerID,
		fmt.Sprintf("Project %s", outcome),
		decisionMessage(updated.Name, outcome, feedback),
	); err != nil {
		return item.Item{}, err
	}

	metrics.ObserveTransition(string(outcome))
	s.log.Infof("item %s marked %s", updated.ID, outcome)
	return updated, nil
}

// Mint records the item on the ledger and, only on success, moves it to
// Minted with a fresh receipt. A failed or cancelled ledger call aborts with
// no state change and no notification. Re-minting an already-Minted item is
// an idempotent refresh.
func (s *Service) Mint(ctx context.Context, actor identity.Actor, itemID, feedback string) (item.Item, error) {
	if !actor.IsAdmin {
		return item.Item{}, apperrors.Unauthorized("only the administrator may mint submissions")
	}

	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return item.Item{}, err
	}

	receipt, err := s.recorder.Record(ctx, it)
	if err != nil {
		metrics.ObserveLedgerFailure()
		return item.Item{}, err
	}

	it.Status = item.StatusMinted
	it.Feedback = feedback
	it.LedgerReceipt = receipt

	updated, err := s.items.UpdateItem(ctx, it)
	if err != nil {
		return item.Item{}, fmt.Errorf("apply mint: %w", err)
	}

	if _, err := s.notifier.Notify(ctx, updated.OwnerID,
		"Project Minted",
		decisionMessage(updated.Name, item.StatusMinted, feedback),
	); err != nil {
		return item.Item{}, err
	}

	metrics.ObserveTransition(string(item.StatusMinted))
	s.log.Infof("item %s minted, receipt %s", updated.ID, receipt)
	return updated, nil
}

// Delete physically removes an item. This is an administrative purge outside
// the state machine: no status check, no notification.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, itemID string) error {
	if !actor.IsAdmin {
		return apperrors.Unauthorized("only the administrator may delete submissions")
	}
	if err := s.items.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.log.Infof("item %s deleted", itemID)
	return nil
}

// Get returns a single item, restricted to its owner or the administrator.
func (s *Service) Get(ctx context.Context, actor identity.Actor, itemID string) (item.Item, error) {
	it, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return item.Item{}, err
	}
	if !actor.IsAdmin && it.OwnerID != actor.ID {
		return item.Item{}, apperrors.NotFound("item %s not found", itemID)
	}
	return it, nil
}

// Stats summarises the item collection.
type Stats struct {
	Total    int
	Verified int
	Minted   int
	Rate     float64
}

// Stats computes submission counts and the verification rate across all
// items.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.items.ListItems(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(all)}
	for _, it := range all {
		switch it.Status {
		case item.StatusVerified:
			stats.Verified++
		case item.StatusMinted:
			stats.Minted++
		}
	}
	if stats.Total > 0 {
		stats.Rate = float64(stats.Verified) / float64(stats.Total) * 100
	}
	return stats, nil
}

func decisionMessage(name string, outcome item.Status, feedback string) string {
	msg := fmt.Sprintf("Admin has marked %q as %s.", name, outcome)
	if feedback != "" {
		msg += " Note: " + feedback
	}
	return msg
}
