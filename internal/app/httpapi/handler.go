// Package httpapi exposes the review layer operations over HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	app "github.com/ProvenDev-Labs/review_layer/internal/app"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/item"
	"github.com/ProvenDev-Labs/review_layer/internal/app/domain/profile"
	apperrors "github.com/ProvenDev-Labs/review_layer/internal/errors"
	"github.com/ProvenDev-Labs/review_layer/internal/middleware"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API plus the websocket
// view streams. Identity middleware must run ahead of it.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/items", h.items)
	mux.HandleFunc("/items/", h.itemResources)
	mux.HandleFunc("/stats", h.stats)
	mux.HandleFunc("/notifications", h.notifications)
	mux.HandleFunc("/notifications/", h.notificationResources)
	mux.HandleFunc("/profiles", h.profiles)
	mux.HandleFunc("/profiles/", h.profileResources)
	mux.HandleFunc("/ws/items", h.streamItems)
	mux.HandleFunc("/ws/notifications", h.streamNotifications)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (h *handler) items(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Name      string `json:"name"`
			TechStack string `json:"tech_stack"`
			RepoURL   string `json:"repo_url"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("decode request: %v", err))
			return
		}

		created, err := h.app.Lifecycle.Submit(r.Context(), actor, payload.Name, payload.TechStack, payload.RepoURL)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodGet:
		snap, err := h.app.Views.ItemsSnapshot(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) itemResources(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/items"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	itemID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			it, err := h.app.Lifecycle.Get(r.Context(), actor, itemID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, it)
		case http.MethodDelete:
			if err := h.app.Lifecycle.Delete(r.Context(), actor, itemID); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "decision":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Outcome  string `json:"outcome"`
			Feedback string `json:"feedback"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("decode request: %v", err))
			return
		}
		updated, err := h.app.Lifecycle.Decide(r.Context(), actor, itemID, item.Status(payload.Outcome), payload.Feedback)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case "mint":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Feedback string `json:"feedback"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("decode request: %v", err))
			return
		}
		updated, err := h.app.Lifecycle.Mint(r.Context(), actor, itemID, payload.Feedback)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindLedgerUnavailable) {
				// A cancelled mint is an outcome, not a fault.
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not completed"})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case "summary":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		it, err := h.app.Lifecycle.Get(r.Context(), actor, itemID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"summary": h.app.Summary.Generate(r.Context(), it)})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := middleware.RequireActor(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	stats, err := h.app.Lifecycle.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.app.Views.NotificationsSnapshot(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) notificationResources(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/notifications"), "/")
	parts := strings.Split(trimmed, "/")

	if len(parts) == 1 && parts[0] == "read-all" {
		snap, err := h.app.Views.NotificationsSnapshot(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		marked, err := h.app.Notifications.MarkAllRead(r.Context(), snap)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
		return
	}

	if len(parts) == 2 && parts[1] == "read" {
		updated, err := h.app.Notifications.MarkRead(r.Context(), parts[0])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) profiles(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	list, err := h.app.Registry.List(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) profileResources(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.RequireActor(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/profiles"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	profileID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := h.app.Registry.Delete(r.Context(), actor, profileID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if parts[1] == "status" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, apperrors.Validation("decode request: %v", err))
			return
		}
		updated, err := h.app.Registry.SetStatus(r.Context(), actor, profileID, profile.AccountStatus(payload.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("%v", err)})
}
