// tavle/handlers/threads.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"tavle/config"
	"tavle/models"

	"github.com/go-chi/chi/v5"
)

// pathID parses an integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireUser rejects unauthenticated requests with 401.
func requireUser(w http.ResponseWriter, r *http.Request, app App) (*models.User, bool) {
	user, ok := currentUser(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"code": "unauthorized", "error": "authentication required",
		}, app)
		return nil, false
	}
	return user, true
}

type threadRequest struct {
	ThreadSubject string  `json:"thread_subject"`
	PostText      *string `json:"post_text"`
	ImageID       *int64  `json:"image_id"`
}

type postRequest struct {
	PostText *string `json:"post_text"`
	ImageID  *int64  `json:"image_id"`
}

func optionalText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func badField(w http.ResponseWriter, app App, code, msg string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"code": code, "error": msg}, app)
}

func validateThreadRequest(w http.ResponseWriter, req threadRequest, app App) bool {
	if req.ThreadSubject == "" {
		badField(w, app, "missing_thread_subject", "thread_subject is required")
		return false
	}
	if len(req.ThreadSubject) > config.MaxSubjectLen {
		badField(w, app, "thread_subject_too_long", "thread_subject exceeds the maximum length")
		return false
	}
	if req.PostText != nil && len(*req.PostText) > config.MaxPostTextLen {
		badField(w, app, "post_text_too_long", "post_text exceeds the maximum length")
		return false
	}
	return true
}

// HandleListThreads returns all threads, most recently active first.
func HandleListThreads(w http.ResponseWriter, r *http.Request, app App) {
	threads, err := app.DB().RetrieveThreads()
	if err != nil {
		respondError(w, err, app)
		return
	}
	views := make([]models.ThreadView, 0, len(threads))
	for _, t := range threads {
		views = append(views, models.NewThreadView(t))
	}
	respondJSON(w, http.StatusOK, views, app)
}

// HandleCreateThread creates a thread together with its opening post.
func HandleCreateThread(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}

	var req threadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badField(w, app, "invalid_body", "request body must be JSON")
		return
	}
	if !validateThreadRequest(w, req, app) {
		return
	}

	threadID, err := app.DB().InsertThread(user.ID, req.ThreadSubject, optionalText(req.PostText), optionalID(req.ImageID))
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"thread_id": threadID}, app)
}

// HandleGetThread returns a thread and all of its posts.
func HandleGetThread(w http.ResponseWriter, r *http.Request, app App) {
	threadID, ok := pathID(r, "threadID")
	if !ok {
		badField(w, app, "invalid_thread_id", "invalid thread id")
		return
	}

	thread, err := app.DB().RetrieveThread(threadID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	posts, err := app.DB().RetrievePosts(threadID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, models.ThreadAndPosts{
		Thread: models.NewThreadView(thread),
		Posts:  models.NewPostViews(posts),
	}, app)
}

// HandleUpdateThread updates a thread's subject and its opening post.
func HandleUpdateThread(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}
	threadID, ok := pathID(r, "threadID")
	if !ok {
		badField(w, app, "invalid_thread_id", "invalid thread id")
		return
	}

	var req threadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badField(w, app, "invalid_body", "request body must be JSON")
		return
	}
	if !validateThreadRequest(w, req, app) {
		return
	}

	threadID, err := app.DB().UpdateThread(user.ID, threadID, req.ThreadSubject, optionalText(req.PostText), optionalID(req.ImageID))
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"thread_id": threadID}, app)
}

// HandleDeleteThread deletes a thread with its posts.
func HandleDeleteThread(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}
	threadID, ok := pathID(r, "threadID")
	if !ok {
		badField(w, app, "invalid_thread_id", "invalid thread id")
		return
	}

	threadID, err := app.DB().DeleteThread(user.ID, threadID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"thread_id": threadID}, app)
}

// HandleListPosts returns all posts of a thread in insertion order.
func HandleListPosts(w http.ResponseWriter, r *http.Request, app App) {
	threadID, ok := pathID(r, "threadID")
	if !ok {
		badField(w, app, "invalid_thread_id", "invalid thread id")
		return
	}
	posts, err := app.DB().RetrievePosts(threadID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, models.NewPostViews(posts), app)
}

// HandleCreatePost appends a reply to a thread.
func HandleCreatePost(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}
	threadID, ok := pathID(r, "threadID")
	if !ok {
		badField(w, app, "invalid_thread_id", "invalid thread id")
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badField(w, app, "invalid_body", "request body must be JSON")
		return
	}
	if req.PostText != nil && len(*req.PostText) > config.MaxPostTextLen {
		badField(w, app, "post_text_too_long", "post_text exceeds the maximum length")
		return
	}

	postID, err := app.DB().InsertPost(user.ID, threadID, optionalText(req.PostText), optionalID(req.ImageID))
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"post_id": postID}, app)
}
