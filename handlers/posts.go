// tavle/handlers/posts.go
package handlers

import (
	"encoding/json"
	"net/http"

	"tavle/config"
	"tavle/models"
)

// HandleGetPost retrieves a single post.
func HandleGetPost(w http.ResponseWriter, r *http.Request, app App) {
	postID, ok := pathID(r, "postID")
	if !ok {
		badField(w, app, "invalid_post_id", "invalid post id")
		return
	}
	post, err := app.DB().RetrievePost(postID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, models.NewPostView(post), app)
}

// HandleUpdatePost rewrites a post's text and image reference.
func HandleUpdatePost(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}
	postID, ok := pathID(r, "postID")
	if !ok {
		badField(w, app, "invalid_post_id", "invalid post id")
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

	postID, err := app.DB().UpdatePost(user.ID, postID, optionalText(req.PostText), optionalID(req.ImageID))
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"post_id": postID}, app)
}

// HandleDeletePost removes a reply post.
func HandleDeletePost(w http.ResponseWriter, r *http.Request, app App) {
	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}
	postID, ok := pathID(r, "postID")
	if !ok {
		badField(w, app, "invalid_post_id", "invalid post id")
		return
	}

	postID, err := app.DB().DeletePost(user.ID, postID)
	if err != nil {
		respondError(w, err, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"post_id": postID}, app)
}
