// Package server exposes the analysis pipeline over HTTP. Uploads run as
// background tasks tracked in SQLite; clients poll task status and fetch or
// edit the rendered prompt document.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rubricon/internal/promptgen"
	"rubricon/internal/rubric"
	"rubricon/internal/storage"
)

// analysisTimeout bounds one background analysis, external enhancement
// included.
const analysisTimeout = 5 * time.Minute

// Server holds the wired pipeline and task store.
type Server struct {
	analyzer *rubric.Analyzer
	store    storage.TaskStore
	log      *slog.Logger
}

// New builds a Server around an analyzer and task store.
func New(analyzer *rubric.Analyzer, store storage.TaskStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{analyzer: analyzer, store: store, log: log}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /generate-prompt", s.handleGeneratePrompt)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("POST /update-yaml/{id}", s.handleUpdateYAML)
	mux.HandleFunc("GET /download-yaml/{id}", s.handleDownloadYAML)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type analyzeRequest struct {
	Filename string        `json:"filename,omitempty"`
	Text     string        `json:"text,omitempty"`
	Table    *rubric.Table `json:"table,omitempty"`
}

type analyzeResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Table == nil && strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "request must include text or table")
		return
	}

	id := uuid.NewString()
	if err := s.store.CreateTask(r.Context(), id, req.Filename); err != nil {
		s.log.Error("creating task", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create task")
		return
	}

	go s.runAnalysis(id, rubric.Input{Text: req.Text, Table: req.Table})

	writeJSON(w, http.StatusAccepted, analyzeResponse{TaskID: id, Status: storage.StatusPending})
}

// runAnalysis executes one task in the background with its own context; the
// request context is gone by the time this runs.
func (s *Server) runAnalysis(id string, input rubric.Input) {
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	if err := s.store.UpdateStatus(ctx, id, storage.StatusProcessing); err != nil {
		s.log.Error("updating task status", "task", id, "error", err)
		return
	}

	result, err := s.analyzer.Analyze(ctx, input)
	if err != nil {
		s.log.Error("analysis failed", "task", id, "error", err)
		if serr := s.store.SetError(ctx, id, err.Error()); serr != nil {
			s.log.Error("recording task failure", "task", id, "error", serr)
		}
		return
	}

	yamlDoc := promptgen.Render(result.Criteria())
	if err := s.store.SetResult(ctx, id, result, yamlDoc); err != nil {
		s.log.Error("storing task result", "task", id, "error", err)
	}
}

type generatePromptRequest struct {
	Key      string        `json:"key,omitempty"`
	Criteria []rubric.Item `json:"criteria"`
}

func (s *Server) handleGeneratePrompt(w http.ResponseWriter, r *http.Request) {
	var req generatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Criteria) == 0 {
		writeError(w, http.StatusBadRequest, "criteria list is empty")
		return
	}
	for i := range req.Criteria {
		if req.Criteria[i].ID == "" {
			req.Criteria[i].ID = rubric.DeriveID(req.Criteria[i].Name)
		}
	}

	doc := promptgen.RenderDocument(promptgen.Document{Key: req.Key, Criteria: req.Criteria})
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

type statusResponse struct {
	TaskID   string                 `json:"task_id"`
	Status   string                 `json:"status"`
	Filename string                 `json:"filename,omitempty"`
	Result   *rubric.AnalysisResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		TaskID:   task.ID,
		Status:   task.Status,
		Filename: task.Filename,
		Result:   task.Result,
		Error:    task.Error,
	})
}

type updateYAMLRequest struct {
	YAML string `json:"yaml"`
}

func (s *Server) handleUpdateYAML(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	var req updateYAMLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := promptgen.Validate(req.YAML); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.UpdateYAML(r.Context(), task.ID, req.YAML); err != nil {
		s.log.Error("updating task yaml", "task", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not update document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": task.ID, "status": "updated"})
}

func (s *Server) handleDownloadYAML(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	if task.Status != storage.StatusCompleted || task.YAML == "" {
		writeError(w, http.StatusConflict, "task has no prompt document yet")
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="`+task.ID+`.yaml"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(task.YAML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*storage.Task, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return nil, false
	}
	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "task not found")
			return nil, false
		}
		s.log.Error("loading task", "task", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load task")
		return nil, false
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
