package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"smartdash/db"
	"smartdash/tasks"
)

// RegisterTaskHandlers mounts the task list, predict and suggest routes.
func RegisterTaskHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", handleListTasks)
	mux.HandleFunc("POST /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		requireToken(handleAddTask)(w, r)
	})
	mux.HandleFunc("DELETE /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		requireToken(handleRemoveTask)(w, r)
	})
	mux.HandleFunc("GET /api/priorities", handleListPriorities)
	mux.HandleFunc("POST /api/tasks/predict", handlePredictPriority)
	mux.HandleFunc("GET /api/tasks/suggestion", handleSuggestTask)
	mux.HandleFunc("GET /api/predictions", handleListPredictions)
	mux.HandleFunc("GET /api/ws/tasks", handleTasksWebSocket)
}

func serviceReady(w http.ResponseWriter) bool {
	if taskService == nil {
		respondError(w, http.StatusServiceUnavailable, "task service not initialized")
		return false
	}
	return true
}

func handleListTasks(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	all, err := taskService.List()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}

func handleListPriorities(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tasks.Priorities())
}

type addTaskRequest struct {
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func handleAddTask(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	var req addTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWarning(w, http.StatusBadRequest, "body must be {\"description\": \"...\", \"priority\": \"Low|Medium|High\"}")
		return
	}
	task, err := taskService.Add(req.Description, req.Priority)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	description := r.URL.Query().Get("description")
	if description == "" {
		respondWarning(w, http.StatusBadRequest, "description query parameter is required")
		return
	}
	removed, err := taskService.Remove(description)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"description": description,
		"removed":     removed,
	})
}

type predictRequest struct {
	Description string `json:"description"`
}

func handlePredictPriority(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWarning(w, http.StatusBadRequest, "body must be {\"description\": \"...\"}")
		return
	}
	priority, err := taskService.Predict(req.Description)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	recordPrediction(r.Context(), req.Description, priority, db.SourceManual)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"description":        req.Description,
		"predicted_priority": priority,
	})
}

func handleSuggestTask(w http.ResponseWriter, r *http.Request) {
	if !serviceReady(w) {
		return
	}
	suggestion, err := taskService.Suggest()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	recordPrediction(r.Context(), suggestion.Task.Description, suggestion.Predicted, db.SourceSuggestion)
	respondJSON(w, http.StatusOK, suggestion)
}

func recordPrediction(ctx context.Context, description string, priority tasks.Priority, source string) {
	if history == nil {
		return
	}
	p := &db.Prediction{Description: description, Predicted: string(priority), Source: source}
	if err := history.SavePrediction(ctx, p); err != nil {
		logger.Warn("failed to record prediction", zap.Error(err))
	}
}

func handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if history == nil {
		respondJSON(w, http.StatusOK, []db.Prediction{})
		return
	}
	source := r.URL.Query().Get("source")
	if source != "" && source != db.SourceManual && source != db.SourceSuggestion {
		respondWarning(w, http.StatusBadRequest, "source must be manual or suggestion")
		return
	}
	preds, err := history.ListPredictions(r.Context(), source, limitParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preds)
}

func handleTasksWebSocket(w http.ResponseWriter, r *http.Request) {
	if realtimeHub == nil {
		respondError(w, http.StatusServiceUnavailable, "realtime hub not initialized")
		return
	}
	realtimeHub.HandleWebSocket(w, r)
}
