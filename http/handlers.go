package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"smartdash/auth"
	"smartdash/db"
	"smartdash/housing"
	"smartdash/monitoring"
	"smartdash/tasks"
)

var (
	logger = zap.NewNop()

	datasets    *housing.Registry
	trainingCfg = housing.TrainingConfig{TestRatio: housing.DefaultTestRatio, Seed: housing.DefaultSeed}
	taskService *tasks.Service
	history     *db.DB
	realtimeHub *monitoring.Hub

	// requireToken guards task mutations; it passes everything through
	// until SetAuthSecret installs a secret.
	requireToken = openAccess
)

func openAccess(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// SetLogger sets the logger used by handlers and middleware.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// SetDatasetRegistry sets where uploaded datasets are kept.
func SetDatasetRegistry(r *housing.Registry) {
	datasets = r
}

// SetTrainingDefaults sets the split ratio and seed used by the train route.
func SetTrainingDefaults(testRatio float64, seed int64) {
	trainingCfg.TestRatio = testRatio
	trainingCfg.Seed = seed
}

func SetTaskService(s *tasks.Service) {
	taskService = s
}

// SetHistory sets where training runs and predictions are recorded; nil
// turns recording off.
func SetHistory(d *db.DB) {
	history = d
}

// SetRealtimeHub enables the websocket endpoint.
func SetRealtimeHub(h *monitoring.Hub) {
	realtimeHub = h
}

// SetAuthSecret makes task mutations require a bearer token signed with
// secret. An empty secret turns the check off.
func SetAuthSecret(secret string) {
	if secret == "" {
		requireToken = openAccess
		return
	}
	requireToken = auth.New([]byte(secret)).Wrap
}

// RegisterHandlers mounts every route on mux.
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON", zap.Error(err))
	}
}

// respondWarning reports a problem with the user's input or data.
func respondWarning(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"warning": msg})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps a domain error onto a status code. Input and
// data problems become warnings; anything unrecognised is logged as a 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		respondWarning(w, http.StatusRequestEntityTooLarge, "upload is too large")
	case errors.Is(err, tasks.ErrTaskNotFound):
		respondWarning(w, http.StatusNotFound, err.Error())
	case tasks.IsValidationError(err), housing.IsValidationError(err):
		respondWarning(w, http.StatusBadRequest, err.Error())
	case tasks.IsInsufficientData(err), housing.IsInsufficientData(err):
		respondWarning(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// limitParam reads ?limit=, falling back to db.DefaultListLimit.
func limitParam(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return db.DefaultListLimit
}
