package app

import (
	"context"
	"fmt"

	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/identity"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/ledger"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/lifecycle"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/notifications"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/registry"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/summary"
	"github.com/ProvenDev-Labs/review_layer/internal/app/services/views"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage"
	"github.com/ProvenDev-Labs/review_layer/internal/app/storage/memory"
	"github.com/ProvenDev-Labs/review_layer/internal/app/system"
	"github.com/ProvenDev-Labs/review_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Items         storage.ItemStore
	Notifications storage.NotificationStore
	Profiles      storage.ProfileStore
}

// Options carries the injectable collaborators. A nil Recorder defaults to
// the simulated ledger; Policy is required.
type Options struct {
	Policy   identity.Policy
	Recorder ledger.Recorder
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Policy        identity.Policy
	Lifecycle     *lifecycle.Service
	Notifications *notifications.Service
	Views         *views.Synchronizer
	Registry      *registry.Service
	Summary       *summary.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if opts.Policy == nil {
		return nil, fmt.Errorf("authorization policy is required")
	}

	mem := memory.New()
	if stores.Items == nil {
		stores.Items = mem
	}
	if stores.Notifications == nil {
		stores.Notifications = mem
	}
	if stores.Profiles == nil {
		stores.Profiles = mem
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = ledger.NewSimulated(0, log.Named("ledger"))
	}

	manager := system.NewManager()

	notifService := notifications.New(stores.Notifications, log.Named("notifications"))
	lifecycleService := lifecycle.New(stores.Items, notifService, recorder, log.Named("lifecycle"))
	viewService := views.New(stores.Items, stores.Notifications, log.Named("views"))
	registryService := registry.New(stores.Profiles, opts.Policy, log.Named("registry"))
	summaryService := summary.New(nil, log.Named("summary"))

	for _, name := range []string{"lifecycle", "notifications", "views"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:       manager,
		log:           log,
		Policy:        opts.Policy,
		Lifecycle:     lifecycleService,
		Notifications: notifService,
		Views:         viewService,
		Registry:      registryService,
		Summary:       summaryService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
