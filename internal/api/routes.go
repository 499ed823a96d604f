package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"dashboard-sync-service/internal/assistant"
	"dashboard-sync-service/internal/auth"
	"dashboard-sync-service/internal/config"
	"dashboard-sync-service/internal/logger"
	"dashboard-sync-service/internal/rbac"
	"dashboard-sync-service/internal/store"
	"dashboard-sync-service/internal/sync"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config    *config.Config
	Store     store.Store
	Manager   *sync.Manager
	Auth      *auth.Service
	Sessions  *auth.SessionManager
	Enforcer  *rbac.Enforcer
	Assistant assistant.Sender
}

type Handler struct {
	cfg         *config.Config
	store       store.Store
	syncManager *sync.Manager
	auth        *auth.Service
	sessions    *auth.SessionManager
	enforcer    *rbac.Enforcer
	assistant   assistant.Sender
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:         d.Config,
		store:       d.Store,
		syncManager: d.Manager,
		auth:        d.Auth,
		sessions:    d.Sessions,
		enforcer:    d.Enforcer,
		assistant:   d.Assistant,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.CorsMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Get("/dashboards/{page}", h.Dashboard)

			r.Route("/incidents", func(r chi.Router) {
				r.Use(h.RequirePage(rbac.PageCybersecurity))
				r.Get("/", h.ListIncidents)
				r.Patch("/{id}/status", h.UpdateIncidentStatus)
				r.Delete("/{id}", h.DeleteIncident)
			})
			r.Route("/datasets", func(r chi.Router) {
				r.Use(h.RequirePage(rbac.PageDataScience))
				r.Get("/", h.ListDatasets)
				r.Patch("/{id}/size", h.UpdateDatasetSize)
				r.Delete("/{id}", h.DeleteDataset)
			})
			r.Route("/tickets", func(r chi.Router) {
				r.Use(h.RequirePage(rbac.PageITOperations))
				r.Get("/", h.ListTickets)
				r.Patch("/{id}/status", h.UpdateTicketStatus)
				r.Delete("/{id}", h.DeleteTicket)
			})

			r.Get("/sync/status", h.GetSyncStatus)
			r.Get("/sync/history", h.GetSyncHistory)
			r.Post("/sync/{source}", h.TriggerSync)

			r.With(h.RequirePage(rbac.PageCybersecurity)).Post("/assistant", h.Ask)
		})
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) CorsMiddleware(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool)
	for _, o := range h.cfg.Server.CorsOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func sessionFrom(r *http.Request) *auth.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*auth.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthMiddleware resolves the bearer token to a live session.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.sessions.Get(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

// RequirePage rejects sessions whose role may not open page.
func (h *Handler) RequirePage(page rbac.Page) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if sess == nil || !h.enforcer.CanView(sess.Role, page) {
				writeError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
