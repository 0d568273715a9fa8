package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"smartdash/db"
	"smartdash/housing"
	"smartdash/ml"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

var errNoUpload = errors.New("please upload a CSV file")

// RegisterHousingHandlers mounts the dataset, chart and training routes.
func RegisterHousingHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasets", handleUploadDataset)
	mux.HandleFunc("GET /api/datasets/{id}", handleGetDataset)
	mux.HandleFunc("GET /api/datasets/{id}/summary", handleDatasetSummary)
	mux.HandleFunc("GET /api/charts", handleListCharts)
	mux.HandleFunc("GET /api/datasets/{id}/charts/{chart}", handleDatasetChart)
	mux.HandleFunc("GET /api/models", handleListModels)
	mux.HandleFunc("POST /api/datasets/{id}/train", handleTrainDataset)
	mux.HandleFunc("GET /api/training/runs", handleTrainingRuns)
}

type datasetResponse struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Rows    int        `json:"rows"`
	Columns []string   `json:"columns"`
	Preview [][]string `json:"preview"`
}

func newDatasetResponse(ds *housing.Dataset, previewRows int) datasetResponse {
	return datasetResponse{
		ID:      ds.ID,
		Name:    ds.Name,
		Rows:    ds.Len(),
		Columns: ds.Columns,
		Preview: ds.Preview(previewRows),
	}
}

// handleUploadDataset accepts a multipart form with a "file" field or a raw
// CSV body.
func handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	if datasets == nil {
		respondError(w, http.StatusServiceUnavailable, "dataset registry not initialized")
		return
	}

	body, name, closeBody, err := uploadedCSV(r)
	if err != nil {
		if errors.Is(err, errNoUpload) {
			respondWarning(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, r, err)
		return
	}
	defer closeBody()

	ds, err := housing.Load(body, name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	datasets.Add(ds)
	logger.Info("dataset uploaded",
		zap.String("id", ds.ID),
		zap.String("name", ds.Name),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
	)
	respondJSON(w, http.StatusCreated, newDatasetResponse(ds, housing.DefaultPreviewRows))
}

func uploadedCSV(r *http.Request) (io.Reader, string, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return nil, "", noop, err
			}
			return nil, "", noop, errNoUpload
		}
		file, header, err := r.FormFile(uploadField)
		if err != nil {
			return nil, "", noop, errNoUpload
		}
		return file, filepath.Base(header.Filename), func() { file.Close() }, nil
	}

	if r.Body == nil || r.ContentLength == 0 {
		return nil, "", noop, errNoUpload
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	return r.Body, filepath.Base(name), noop, nil
}

func lookupDataset(w http.ResponseWriter, r *http.Request) (*housing.Dataset, bool) {
	if datasets == nil {
		respondError(w, http.StatusServiceUnavailable, "dataset registry not initialized")
		return nil, false
	}
	id := r.PathValue("id")
	ds, ok := datasets.Get(id)
	if !ok {
		respondWarning(w, http.StatusNotFound, "dataset not found; upload it again")
		return nil, false
	}
	return ds, true
}

func handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := lookupDataset(w, r)
	if !ok {
		return
	}
	rows := housing.DefaultPreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWarning(w, http.StatusBadRequest, "rows must be a non-negative integer")
			return
		}
		rows = n
	}
	respondJSON(w, http.StatusOK, newDatasetResponse(ds, rows))
}

func handleDatasetSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := lookupDataset(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      ds.ID,
		"name":    ds.Name,
		"summary": ds.Summary(),
	})
}

func handleListCharts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, housing.Charts())
}

func handleDatasetChart(w http.ResponseWriter, r *http.Request) {
	ds, ok := lookupDataset(w, r)
	if !ok {
		return
	}
	chart, err := ds.BuildChart(r.PathValue("chart"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, chart)
}

func handleListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ml.ModelKinds())
}

type trainRequest struct {
	Model string `json:"model"`
}

func handleTrainDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := lookupDataset(w, r)
	if !ok {
		return
	}
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWarning(w, http.StatusBadRequest, "body must be {\"model\": \"linear_regression\" | \"gradient_boosting\"}")
		return
	}
	req.Model = strings.TrimSpace(req.Model)

	cfg := trainingCfg
	cfg.Model = req.Model
	result, err := housing.Train(ds, cfg)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logger.Info("model trained",
		zap.String("dataset", ds.Name),
		zap.String("model", result.Model),
		zap.Float64("r2", result.R2),
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows),
	)

	if history != nil {
		run := &db.TrainingRun{
			DatasetName: ds.Name,
			ModelName:   result.Model,
			R2:          result.R2,
			TrainRows:   result.TrainRows,
			TestRows:    result.TestRows,
		}
		if err := history.SaveTrainingRun(r.Context(), run); err != nil {
			logger.Warn("failed to record training run", zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, result)
}

func handleTrainingRuns(w http.ResponseWriter, r *http.Request) {
	if history == nil {
		respondJSON(w, http.StatusOK, []db.TrainingRun{})
		return
	}
	runs, err := history.ListTrainingRuns(r.Context(), limitParam(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, runs)
}
