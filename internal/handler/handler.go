package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/qbank/internal/classifier"
	appI18n "github.com/pavelanni/qbank/internal/i18n"
	"github.com/pavelanni/qbank/internal/model"
	"github.com/pavelanni/qbank/internal/similarity"
	"github.com/pavelanni/qbank/internal/store"
)

// Generator drafts new questions for a topic and cognitive level. It is
// satisfied by *llm.Client.
type Generator interface {
	GenerateQuestions(ctx context.Context, topic string, level model.CognitiveLevel, count int) ([]model.QuestionImport, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	llm    Generator
	config model.ServerConfig
}

// New creates a new Handler. The generator may be nil when no LLM endpoint
// is configured; the generate route then answers 503.
func New(s *store.Store, g Generator, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, llm: g, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/api/logout", h.handleLogout)

		r.Post("/api/classify", h.handleClassify)
		r.Post("/api/similarity", h.handleSimilarity)

		r.Get("/api/questions", h.handleListQuestions)
		r.Post("/api/questions", h.handleImportQuestions)
		r.Get("/api/topics", h.handleListTopics)
		r.Get("/api/questions/{id}", h.handleGetQuestion)
		r.Get("/api/questions/{id}/similar", h.handleSimilarQuestions)
		r.Get("/api/duplicates", h.handleDuplicates)
		r.Get("/api/export", h.handleExport)

		r.Get("/api/review", h.handleReviewQueue)
		r.With(requireRole(model.UserRoleReviewer, model.UserRoleAdmin)).
			Post("/api/questions/{id}/review", h.handleReviewQuestion)
		r.With(requireRole(model.UserRoleReviewer, model.UserRoleAdmin)).
			Post("/api/questions/{id}/approve", h.handleApproveQuestion)
		r.With(requireRole(model.UserRoleAdmin)).
			Delete("/api/questions/{id}", h.handleDeleteQuestion)

		r.Get("/api/matrices", h.handleListMatrices)
		r.Post("/api/matrices", h.handleSaveMatrix)
		r.Get("/api/matrices/{id}", h.handleGetMatrix)
		r.With(requireRole(model.UserRoleAdmin)).
			Delete("/api/matrices/{id}", h.handleDeleteMatrix)
		r.Post("/api/analysis", h.handleAnalysis)

		r.With(requireRole(model.UserRoleAuthor, model.UserRoleAdmin)).
			Post("/api/generate", h.handleGenerate)

		r.Route("/api/users", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/", h.handleListUsers)
			r.Post("/", h.handleCreateUser)
			r.Post("/{id}/toggle", h.handleToggleUserActive)
		})
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func urlParamID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type classifyRequest struct {
	Text string             `json:"text"`
	Type model.QuestionType `json:"type"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = model.TypeShortAnswer
	}
	respondJSON(w, http.StatusOK, classifier.Classify(req.Text, req.Type))
}

type similarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (h *Handler) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"score": similarity.Similarity(req.A, req.B)})
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	level := model.CognitiveLevel(r.URL.Query().Get("level"))
	questions, err := h.store.ListQuestionsFiltered(topic, level)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "question not found")
		return
	}
	respondJSON(w, http.StatusOK, q)
}

type importResponse struct {
	Imported      int     `json:"imported"`
	FlaggedReview int     `json:"flagged_for_review"`
	DuplicateHits int     `json:"duplicate_hits"`
	Message       string  `json:"message"`
	IDs           []int64 `json:"ids"`
}

// handleImportQuestions classifies and stores a batch of raw questions.
// Items similar to an existing bank question above the configured threshold
// are still stored but counted so the author can follow up.
func (h *Handler) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	var imports []model.QuestionImport
	if !decodeJSON(w, r, &imports) {
		return
	}

	existing, err := h.store.ListQuestions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	corpus := make([]similarity.Document, 0, len(existing))
	for _, q := range existing {
		corpus = append(corpus, similarity.Document{ID: q.ID, Text: q.Text})
	}

	resp := importResponse{IDs: []int64{}}
	for _, item := range imports {
		if item.Text == "" {
			continue
		}
		c := classifier.Classify(item.Text, item.Type)
		id, err := h.store.InsertQuestion(model.Question{
			Text:           item.Text,
			Type:           item.Type,
			Topic:          item.Topic,
			Classification: c,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.IDs = append(resp.IDs, id)
		resp.Imported++
		if c.NeedsReview {
			resp.FlaggedReview++
		}
		if len(similarity.FindSimilar(item.Text, corpus, h.config.SimilarityThreshold)) > 0 {
			resp.DuplicateHits++
		}
		corpus = append(corpus, similarity.Document{ID: id, Text: item.Text})
	}

	resp.Message = appI18n.Tp(r.Context(), "QuestionsImported", resp.Imported)
	slog.Info("imported questions", "count", resp.Imported, "flagged", resp.FlaggedReview)
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleSimilarQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "question not found")
		return
	}

	questions, err := h.store.ListQuestions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	corpus := make([]similarity.Document, 0, len(questions))
	for _, other := range questions {
		if other.ID == id {
			continue
		}
		corpus = append(corpus, similarity.Document{ID: other.ID, Text: other.Text})
	}

	matches := similarity.FindSimilar(q.Text, corpus, h.threshold(r))
	if matches == nil {
		matches = []similarity.Match{}
	}
	respondJSON(w, http.StatusOK, matches)
}

type duplicatePair struct {
	QuestionID int64   `json:"question_id"`
	OtherID    int64   `json:"other_id"`
	Score      float64 `json:"score"`
}

type duplicatesResponse struct {
	Pairs   []duplicatePair `json:"pairs"`
	Message string          `json:"message"`
}

// handleDuplicates scans the whole bank for question pairs above the
// similarity threshold. Each pair is reported once, lower ID first.
func (h *Handler) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	threshold := h.threshold(r)
	resp := duplicatesResponse{Pairs: []duplicatePair{}}
	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			score := similarity.Similarity(questions[i].Text, questions[j].Text)
			if score >= threshold {
				resp.Pairs = append(resp.Pairs, duplicatePair{
					QuestionID: questions[i].ID,
					OtherID:    questions[j].ID,
					Score:      score,
				})
			}
		}
	}
	resp.Message = appI18n.Tp(r.Context(), "DuplicatesFound", len(resp.Pairs))
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) threshold(r *http.Request) float64 {
	if s := r.URL.Query().Get("threshold"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 && v <= 1 {
			return v
		}
	}
	return h.config.SimilarityThreshold
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.store.ListDistinctTopics()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if topics == nil {
		topics = []string{}
	}
	respondJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.store.ListReviewQueue()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if queue == nil {
		queue = []model.Question{}
	}
	respondJSON(w, http.StatusOK, queue)
}

type reviewRequest struct {
	CognitiveLevel     model.CognitiveLevel     `json:"cognitive_level"`
	KnowledgeDimension model.KnowledgeDimension `json:"knowledge_dimension"`
	Difficulty         model.Difficulty         `json:"difficulty"`
}

// handleReviewQuestion records a human correction of the automatic
// classification. The corrected labels get full confidence and the question
// leaves the review queue.
func (h *Handler) handleReviewQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := h.store.GetQuestion(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "question not found")
		return
	}

	c := q.Classification
	if req.CognitiveLevel != "" {
		c.CognitiveLevel = req.CognitiveLevel
	}
	if req.KnowledgeDimension != "" {
		c.KnowledgeDimension = req.KnowledgeDimension
	}
	if req.Difficulty != "" {
		c.Difficulty = req.Difficulty
	}
	c.Confidence = 1.0
	c.NeedsReview = false

	if err := h.store.UpdateClassification(id, c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := model.UserFromContext(r.Context())
	slog.Info("classification reviewed", "question_id", id, "reviewer", user.Username)
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) handleApproveQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	if err := h.store.SetApproved(id, true); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"approved": true})
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}
	if err := h.store.SoftDeleteQuestion(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportBank()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, export)
}
