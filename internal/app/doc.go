// Package app composes the review layer: the lifecycle engine governing
// submission state, the notification dispatcher, the live view synchronizer
// and the ledger recorder, wired over pluggable storage.
//
//	internal/app/
//	├── application.go      wiring and lifecycle
//	├── domain/             pure data models (item, notification, identity, profile)
//	├── storage/            store interfaces; memory and postgres implementations
//	├── services/           business logic per concern
//	├── httpapi/            REST handlers and websocket view streams
//	├── metrics/            Prometheus collectors
//	└── system/             lifecycle-managed service manager
//
// Business rules live in services/; this package only assembles them.
package app
