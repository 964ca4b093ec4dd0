package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pavelanni/qbank/internal/classifier"
	appI18n "github.com/pavelanni/qbank/internal/i18n"
	"github.com/pavelanni/qbank/internal/model"
	"github.com/pavelanni/qbank/internal/sufficiency"
)

func (h *Handler) handleListMatrices(w http.ResponseWriter, r *http.Request) {
	matrices, err := h.store.ListMatrices()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matrices == nil {
		matrices = []model.RequirementMatrix{}
	}
	respondJSON(w, http.StatusOK, matrices)
}

func (h *Handler) handleSaveMatrix(w http.ResponseWriter, r *http.Request) {
	var m model.RequirementMatrix
	if !decodeJSON(w, r, &m) {
		return
	}
	if m.Name == "" {
		respondError(w, http.StatusBadRequest, "matrix name is required")
		return
	}
	if m.Topics == nil {
		respondError(w, http.StatusBadRequest, "matrix topics must be a list")
		return
	}

	id, err := h.store.SaveMatrix(m)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	m.ID = id
	slog.Info("saved requirement matrix", "id", id, "name", m.Name, "topics", len(m.Topics))
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleGetMatrix(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid matrix ID")
		return
	}
	m, err := h.store.GetMatrix(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "matrix not found")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDeleteMatrix(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid matrix ID")
		return
	}
	if err := h.store.DeleteMatrix(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type analysisRequest struct {
	MatrixID   int64                    `json:"matrix_id,omitempty"`
	MatrixName string                   `json:"matrix_name,omitempty"`
	Matrix     *model.RequirementMatrix `json:"matrix,omitempty"`
}

type analysisResponse struct {
	model.SufficiencyAnalysis
	Summary  string   `json:"summary"`
	Messages []string `json:"messages"`
}

// handleAnalysis reconciles a requirement matrix against the current
// inventory. The matrix comes inline, by stored ID, or by stored name.
func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var matrix model.RequirementMatrix
	switch {
	case req.Matrix != nil:
		matrix = *req.Matrix
	case req.MatrixID != 0:
		m, err := h.store.GetMatrix(req.MatrixID)
		if err != nil {
			respondError(w, http.StatusNotFound, "matrix not found")
			return
		}
		matrix = m
	case req.MatrixName != "":
		m, err := h.store.GetMatrixByName(req.MatrixName)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if m == nil {
			respondError(w, http.StatusNotFound, "matrix not found")
			return
		}
		matrix = *m
	default:
		respondError(w, http.StatusBadRequest, "matrix, matrix_id or matrix_name is required")
		return
	}

	inventory, err := h.store.ListQuestions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	analysis, err := sufficiency.Analyze(matrix, inventory)
	if err != nil {
		if errors.Is(err, sufficiency.ErrInvalidMatrix) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := analysisResponse{
		SufficiencyAnalysis: *analysis,
		Summary: appI18n.Td(r.Context(), "CoverageSummary", map[string]any{
			"Score": fmt.Sprintf("%.1f", analysis.OverallScore),
		}),
		Messages: []string{},
	}
	for _, rec := range analysis.Recommendations {
		resp.Messages = append(resp.Messages, appI18n.Td(r.Context(), "RecommendationLine", map[string]any{
			"Gap":   rec.Gap,
			"Level": string(rec.Level),
			"Topic": rec.Topic,
		}))
	}

	slog.Info("sufficiency analysis",
		"matrix", matrix.Name,
		"score", analysis.OverallScore,
		"status", analysis.OverallStatus,
		"gap", analysis.TotalGap)
	respondJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	Topic string               `json:"topic"`
	Level model.CognitiveLevel `json:"level"`
	Count int                  `json:"count"`
}

// handleGenerate asks the LLM to draft questions for an uncovered cell.
// Drafts are classified on the way in and stored unapproved; a reviewer
// approves the keepers and deletes the rest.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		respondError(w, http.StatusServiceUnavailable, "question generation is not configured")
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Topic == "" || req.Level == "" {
		respondError(w, http.StatusBadRequest, "topic and level are required")
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if h.config.MaxGenerate > 0 && req.Count > h.config.MaxGenerate {
		req.Count = h.config.MaxGenerate
	}

	drafts, err := h.llm.GenerateQuestions(r.Context(), req.Topic, req.Level, req.Count)
	if err != nil {
		slog.Error("question generation failed", "topic", req.Topic, "level", req.Level, "error", err)
		respondError(w, http.StatusBadGateway, "generation failed: "+err.Error())
		return
	}

	stored := make([]model.Question, 0, len(drafts))
	for _, d := range drafts {
		q := model.Question{
			Text:           d.Text,
			Type:           d.Type,
			Topic:          d.Topic,
			Classification: classifier.Classify(d.Text, d.Type),
		}
		id, err := h.store.InsertQuestion(q)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		q, err = h.store.GetQuestion(id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stored = append(stored, q)
	}
	slog.Info("stored generated drafts", "topic", req.Topic, "level", req.Level, "count", len(stored))
	respondJSON(w, http.StatusCreated, stored)
}
