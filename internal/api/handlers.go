package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"studytrack/internal/auth"
	"studytrack/internal/middleware"
	"studytrack/internal/models"
	"studytrack/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	store  store.Store
	tokens *auth.TokenService
	log    *zap.Logger
}

func NewHandlers(st store.Store, tokens *auth.TokenService, log *zap.Logger) *Handlers {
	return &Handlers{store: st, tokens: tokens, log: log}
}

// Router builds the full route tree. authMiddleware guards everything except
// signup and login.
func (h *Handlers) Router(authMiddleware func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/token", h.Token)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/goals", h.ListGoals)
		r.Post("/goals", h.UpsertGoal)
		r.Delete("/goals/{id}", h.DeleteGoal)

		r.Get("/subjects", h.ListSubjects)
		r.Post("/subjects", h.UpsertSubject)
		r.Delete("/subjects/{id}", h.DeleteSubject)

		r.Get("/chapters", h.ListChapters)
		r.Post("/chapters", h.UpsertChapter)
		r.Delete("/chapters/{id}", h.DeleteChapter)

		r.Get("/notifications", h.ListNotifications)
		r.Post("/notifications/sync", h.SyncNotifications)
	})

	return r
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		h.internalError(w, err)
		return
	}

	user, err := h.store.CreateUser(creds.Email, hash)
	if errors.Is(err, store.ErrEmailTaken) {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Unknown email and wrong password take the same exit.
	user, err := h.store.GetUserByEmail(creds.Email)
	if err != nil || !auth.VerifyPassword(creds.Password, user.PasswordHash) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "incorrect email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
}

// Goals

func (h *Handlers) ListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	goals, err := h.store.ListGoals(user.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handlers) UpsertGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if goal.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	saved, err := h.store.UpsertGoal(user.ID, goal)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handlers) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	err := h.store.DeleteGoal(user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "goal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "goal deleted"})
}

// Subjects

func (h *Handlers) ListSubjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	subjects, err := h.store.ListSubjects(user.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *Handlers) UpsertSubject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	var subject models.Subject
	if err := json.NewDecoder(r.Body).Decode(&subject); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if subject.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if subject.TrackingMode == "" {
		subject.TrackingMode = models.TrackingModeSchedule
	}

	saved, err := h.store.UpsertSubject(user.ID, subject)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "subject not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handlers) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	err := h.store.DeleteSubject(user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "subject not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subject deleted"})
}

// Chapters

func (h *Handlers) ListChapters(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}

	chapters, err := h.store.ListChapters(user.ID, subjectID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (h *Handlers) UpsertChapter(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	var chapter models.Chapter
	if err := json.NewDecoder(r.Body).Decode(&chapter); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if chapter.ID == "" || chapter.SubjectID == "" {
		http.Error(w, "id and subjectId are required", http.StatusBadRequest)
		return
	}

	saved, err := h.store.UpsertChapter(user.ID, chapter)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "chapter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handlers) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	err := h.store.DeleteChapter(user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "chapter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "chapter deleted"})
}

// Notifications

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	notifications, err := h.store.ListNotifications(user.ID)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handlers) SyncNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "could not validate credentials", http.StatusUnauthorized)
		return
	}

	var incoming []models.Notification
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, n := range incoming {
		if n.ID == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}
	}

	notifications, err := h.store.SyncNotifications(user.ID, incoming)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *Handlers) internalError(w http.ResponseWriter, err error) {
	h.log.Error("internal error", zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
