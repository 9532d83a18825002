package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ecohome/ecohome/internal/alerter"
	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
	"github.com/ecohome/ecohome/internal/version"
	"github.com/ecohome/ecohome/internal/webui"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests
const ShutdownTimeout = 5 * time.Second

// Store is the state the server reads and dispatches to
type Store interface {
	Snapshot() state.State
	Dispatch(a state.Action) state.Change
}

// Server provides HTTP API endpoints and web UI
type Server struct {
	store      Store
	logger     zerolog.Logger
	port       string
	logBuffer  *webui.LogBuffer
	flaps      *alerter.FlapDetector
	metrics    http.Handler
	configPath string
	currency   string
	session    string
	startTime  time.Time
	version    version.Info
	versionMu  sync.RWMutex
}

// NewServer creates a new API server
func NewServer(store Store, logger zerolog.Logger, port string) *Server {
	return &Server{
		store:     store,
		logger:    logger.With().Str("component", "api").Logger(),
		port:      port,
		currency:  "$",
		startTime: time.Now(),
		version:   version.Get(),
	}
}

// SetLogBuffer sets the log buffer for the web UI
func (s *Server) SetLogBuffer(lb *webui.LogBuffer) {
	s.logBuffer = lb
}

// SetFlapDetector sets the detector fed by every applied toggle
func (s *Server) SetFlapDetector(fd *alerter.FlapDetector) {
	s.flaps = fd
}

// SetMetricsHandler mounts h on /metrics
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.metrics = h
}

// SetConfigPath records where the configuration was loaded from
func (s *Server) SetConfigPath(path string) {
	s.configPath = path
}

// SetCurrency sets the symbol prices are rendered with
func (s *Server) SetCurrency(symbol string) {
	s.currency = symbol
}

// SetSession sets the session id reported by /status
func (s *Server) SetSession(id string) {
	s.session = id
}

// SetVersion sets the version information
func (s *Server) SetVersion(info version.Info) {
	s.versionMu.Lock()
	defer s.versionMu.Unlock()
	s.version = info
}

// Router builds the HTTP handler with all routes and middleware
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// API endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}", s.handleDevice).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/toggle", s.handleToggleAPI).Methods(http.MethodPost)
	api.HandleFunc("/energy", s.handleEnergy).Methods(http.MethodGet)
	api.HandleFunc("/rooms", s.handleRooms).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/insights", s.handleInsights).Methods(http.MethodGet)
	api.HandleFunc("/totals", s.handleTotals).Methods(http.MethodGet)
	api.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	// Web UI
	r.HandleFunc("/devices/{id}/toggle", s.handleToggleForm).Methods(http.MethodPost)
	r.HandleFunc("/", s.handleWebUI).Methods(http.MethodGet)

	return withMiddleware(r, s.logger)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("address", addr).
			Msg("Starting API server with Web UI")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	s.logger.Info().Msg("API server stopped")
	return nil
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus returns current state summary
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	s.versionMu.RLock()
	info := s.version
	s.versionMu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"time":           time.Now().UTC().Format(time.RFC3339),
		"uptime":         time.Since(s.startTime).String(),
		"version":        info.Version,
		"commit":         info.Commit,
		"build_date":     info.BuildDate,
		"session":        s.session,
		"config_path":    s.configPath,
		"device_count":   snap.Totals.DeviceCount,
		"active_devices": snap.Totals.ActiveDevices,
		"samples":        len(snap.Samples),
		"alerts":         len(snap.Alerts),
		"flapping":       s.flaps.Flapping(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"devices": snap.Devices,
		"count":   len(snap.Devices),
	})
}

// handleDevice returns one device, 404 when the id is unknown
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	device, ok := s.store.Snapshot().Device(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("device %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// ToggleResponse is returned by POST /api/devices/{id}/toggle
type ToggleResponse struct {
	Changed bool          `json:"changed"`
	Device  *types.Device `json:"device,omitempty"`
	Totals  types.Totals  `json:"totals"`
}

// handleToggleAPI flips a device. Unknown ids are a no-op reported as
// changed=false rather than an error.
func (s *Server) handleToggleAPI(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	change := s.toggle(id)
	resp := ToggleResponse{Changed: change.Changed, Totals: change.Next.Totals}
	if device, ok := change.Next.Device(id); ok {
		resp.Device = &device
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleToggleForm flips a device from the devices tab and redirects back
func (s *Server) handleToggleForm(w http.ResponseWriter, r *http.Request) {
	id, err := deviceID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.toggle(id)
	http.Redirect(w, r, "/?tab="+string(webui.TabDevices), http.StatusSeeOther)
}

func (s *Server) toggle(id int) state.Change {
	change := s.store.Dispatch(state.ToggleDevice{ID: id})
	if change.Changed {
		device, _ := change.Next.Device(id)
		s.logger.Info().
			Int("device_id", id).
			Str("device", device.Name).
			Str("status", string(device.Status)).
			Float64("total_power_w", change.Next.Totals.PowerW).
			Msg("Device toggled")
		s.flaps.RecordToggle(id)
	} else {
		s.logger.Debug().Int("device_id", id).Msg("Toggle for unknown device ignored")
	}
	return change
}

func (s *Server) handleEnergy(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := map[string]interface{}{
		"samples": snap.Samples,
		"count":   len(snap.Samples),
	}
	if latest, ok := snap.LatestSample(); ok {
		resp["latest"] = latest
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": s.store.Snapshot().Rooms,
	})
}

// handleAlerts returns the alert board, optionally filtered by ?severity=
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.store.Snapshot().Alerts
	counts := alerter.Counts(alerts)

	if sev := r.URL.Query().Get("severity"); sev != "" {
		if !types.Severity(sev).Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", sev))
			return
		}
		alerts = alerter.Filter(alerts, types.Severity(sev))
	}
	if alerts == nil {
		alerts = []types.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":      alerts,
		"count":       len(alerts),
		"by_severity": counts,
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Insights)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Totals)
}

// handleLogs returns recent log entries as JSON. ?component= narrows to one
// component and ?limit= caps the count (default 200).
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries := []webui.LogEntry{}
	if s.logBuffer != nil {
		if component := r.URL.Query().Get("component"); component != "" {
			entries = append(entries, s.logBuffer.ForComponent(component, limit)...)
		} else {
			entries = append(entries, s.logBuffer.Recent(limit)...)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleWebUI renders the dashboard for the tab in ?tab=
func (s *Server) handleWebUI(w http.ResponseWriter, r *http.Request) {
	tab := webui.ParseTab(r.URL.Query().Get("tab"))
	data := webui.NewPageData(s.store.Snapshot(), tab, s.currency)
	data.Uptime = formatDuration(time.Since(s.startTime))

	s.versionMu.RLock()
	data.Version = s.version
	s.versionMu.RUnlock()

	if s.logBuffer != nil {
		data.Logs = s.logBuffer.Recent(100)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Templates.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func deviceID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	hours := int(d.Hours())
	if hours < 24 {
		return d.Round(time.Minute).String()
	}
	days := hours / 24
	hours = hours % 24
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}
