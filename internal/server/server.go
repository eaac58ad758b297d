// Package server implements the skymap proxy server: a thin HTTP facade
// in front of the upstream state API so many map clients can share one
// rate-limited upstream connection, plus a websocket stream of the
// server-side filtered entity list.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/avmaps/skymap/internal/auth"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
)

// streamInterval is how often the websocket stream pushes the current
// entity list to each client.
const streamInterval = 2 * time.Second

// Server holds the HTTP server and its dependencies.
type Server struct {
	router     *chi.Mux
	authSvc    *auth.Service
	store      *pipeline.Store
	upstream   string
	httpClient *http.Client
	limiter    *rate.Limiter
	upgrader   websocket.Upgrader

	adminUser string
	adminHash string

	// onRegionChange notifies the owning process (the refresher) that
	// the collection region moved. May be nil.
	onRegionChange func()

	mu     sync.RWMutex
	region geo.Bounds
}

// New creates a server around the shared entity store.
func New(cfg config.ServerConfig, feedCfg config.FeedConfig, store *pipeline.Store, region geo.Bounds) *Server {
	perMinute := cfg.UpstreamRatePerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	s := &Server{
		router:   chi.NewRouter(),
		authSvc:  auth.NewService(auth.Config{JWTSecret: cfg.JWTSecret}),
		store:    store,
		upstream: feedCfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		adminUser: cfg.AdminUser,
		adminHash: cfg.AdminPasswordHash,
		region:    region,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.setupRoutes()
	return s
}

// OnRegionChange registers a callback fired after the collection region
// is updated through the API.
func (s *Server) OnRegionChange(fn func()) {
	s.onRegionChange = fn
}

// Region returns the current server-side collection region.
func (s *Server) Region() geo.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/states", s.handleStatesProxy)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Post("/api/login", s.handleLogin)
	s.router.Get("/ws/states", s.handleStatesStream)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireRole(auth.RoleAdmin))
		r.Put("/api/region", s.handleSetRegion)
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatesProxy forwards a bounding-box states query to the upstream
// API, enforcing the shared rate limit. Clients see 429 when the proxy's
// upstream budget is exhausted.
func (s *Server) handleStatesProxy(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "10")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "upstream budget exhausted"})
		return
	}

	url := fmt.Sprintf("%s/states/all?%s", s.upstream, r.URL.RawQuery)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "bad upstream request"})
		return
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("states proxy copy failed: %v", err)
	}
}

// statusResponse is the wire shape of /api/status.
type statusResponse struct {
	LastUpdate time.Time  `json:"last_update"`
	LastError  string     `json:"last_error,omitempty"`
	Stale      bool       `json:"stale"`
	Received   int        `json:"received"`
	Kept       int        `json:"kept"`
	Region     geo.Bounds `json:"region"`
}

// handleStatus reports the server-side feed status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.store.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		LastUpdate: st.LastUpdate,
		LastError:  st.LastError,
		Stale:      st.Stale,
		Received:   st.Received,
		Kept:       st.Kept,
		Region:     s.Region(),
	})
}

// handleLogin authenticates the admin account and issues a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Username != s.adminUser ||
		s.authSvc.ComparePassword(s.adminHash, req.Password) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	token, err := s.authSvc.GenerateToken(req.Username, auth.RoleAdmin)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleSetRegion updates the server-side collection region.
func (s *Server) handleSetRegion(w http.ResponseWriter, r *http.Request) {
	var region geo.Bounds
	if err := json.NewDecoder(r.Body).Decode(&region); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid region body"})
		return
	}
	if region.South >= region.North || region.West >= region.East {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region bounds are inverted"})
		return
	}

	s.mu.Lock()
	s.region = region
	s.mu.Unlock()

	if s.onRegionChange != nil {
		s.onRegionChange()
	}

	writeJSON(w, http.StatusOK, region)
}

// streamEntity is the wire shape of one entity on the websocket stream.
type streamEntity struct {
	ID       string  `json:"id"`
	Callsign string  `json:"callsign,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Heading  float64 `json:"heading"`
}

// streamFrame is one websocket stream message.
type streamFrame struct {
	Time     time.Time      `json:"time"`
	Stale    bool           `json:"stale"`
	Entities []streamEntity `json:"entities"`
}

// handleStatesStream upgrades to a websocket and pushes the current entity
// list on a fixed cadence until the client disconnects.
func (s *Server) handleStatesStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		entities := s.store.Entities()
		st := s.store.Status()

		frame := streamFrame{
			Time:     st.LastUpdate,
			Stale:    st.Stale,
			Entities: make([]streamEntity, 0, len(entities)),
		}
		for _, e := range entities {
			frame.Entities = append(frame.Entities, streamEntity{
				ID:       e.ID,
				Callsign: e.Callsign,
				Lat:      e.Position.Latitude,
				Lon:      e.Position.Longitude,
				Heading:  e.Heading,
			})
		}

		if err := conn.WriteJSON(frame); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}

// requireRole validates the bearer token and checks the caller's role.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			claims, err := s.authSvc.ValidateToken(header[len(prefix):])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}

			if role == auth.RoleAdmin && !auth.CanEditConfig(claims.Role) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient role"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
