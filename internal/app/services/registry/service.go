// Package registry manages the persisted user directory and its
// administrative operations.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Service exposes directory operations over profiles. The master
// administrator profile can never be suspended or deleted.
type Service struct {
	store  storage.ProfileStore
	policy identity.Policy
	log    *logger.Logger
}

// New constructs a registry service.
func New(store storage.ProfileStore, policy identity.Policy, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("registry")
	}
	return &Service{store: store, policy: policy, log: log}
}

// Ensure upserts a directory entry for an authenticated actor. Called from
// the identity gate on first contact; an existing profile is left untouched.
func (s *Service) Ensure(ctx context.Context, actor identity.Actor) (profile.Profile, error) {
	existing, err := s.store.GetProfile(ctx, actor.ID)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return profile.Profile{}, err
	}

	role := "USER"
	if actor.IsAdmin {
		role = "ADMIN"
	}
	created, err := s.store.CreateProfile(ctx, profile.Profile{
		ID:            actor.ID,
		Email:         actor.Email,
		Role:          role,
		AccountStatus: profile.StatusActive,
	})
	if err != nil {
		return profile.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.log.Infof("profile %s registered for %s", created.ID, created.Email)
	return created, nil
}

// List returns all directory entries, newest first. Administrator only.
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]profile.Profile, error) {
	if !actor.IsAdmin {
		return nil, apperrors.Unauthorized("only the administrator may list profiles")
	}
	all, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// SetStatus toggles a profile between Active and Suspended.
func (s *Service) SetStatus(ctx context.Context, actor identity.Actor, profileID string, status profile.AccountStatus) (profile.Profile, error) {
	if !actor.IsAdmin {
		return profile.Profile{}, apperrors.Unauthorized("only the administrator may change account status")
	}
	if status != profile.StatusActive && status != profile.StatusSuspended {
		return profile.Profile{}, apperrors.Validation("status must be %s or %s", profile.StatusActive, profile.StatusSuspended)
	}

	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return profile.Profile{}, err
	}
	if s.policy.IsAdmin(p.Email) {
		return profile.Profile{}, apperrors.Validation("the master admin account cannot be suspended")
	}

	p.AccountStatus = status
	updated, err := s.store.UpdateProfile(ctx, p)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("set account status: %w", err)
	}
	s.log.Infof("profile %s set to %s", profileID, status)
	return updated, nil
}

// Delete removes a profile from the directory.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, profileID string) error {
	if !actor.IsAdmin {
		return apperrors.Unauthorized("only the administrator may delete profiles")
	}

	p, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if s.policy.IsAdmin(p.Email) {
		return apperrors.Validation("the master admin account cannot be deleted")
	}

	if err := s.store.DeleteProfile(ctx, profileID); err != nil {
		return err
	}
	s.log.Infof("profile %s deleted", profileID)
	return nil
}
