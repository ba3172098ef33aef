// tavle/handlers/threads_test.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"tavle/config"
	"tavle/models"

	"github.com/go-chi/chi/v5"
)

func createThread(t *testing.T, router *chi.Mux, cookie *http.Cookie, subject, text string) int64 {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/threads", map[string]any{
		"thread_subject": subject, "post_text": text,
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Thread creation returned %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]int64
	decodeBody(t, rec, &body)
	return body["thread_id"]
}

func TestCreateThreadRequiresAuth(t *testing.T) {
	_, router := setupTestApp(t)

	rec := doJSON(t, router, http.MethodPost, "/api/threads", map[string]any{
		"thread_subject": "anonymous",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a session, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestThreadLifecycle(t *testing.T) {
	_, router := setupTestApp(t)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	threadID := createThread(t, router, alice, "hello board", "opening text")
	path := "/api/threads/" + strconv.FormatInt(threadID, 10)

	// The board lists the thread.
	rec := doJSON(t, router, http.MethodGet, "/api/threads", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 listing threads, got %d: %s", rec.Code, rec.Body.String())
	}
	var threads []models.ThreadView
	decodeBody(t, rec, &threads)
	if len(threads) != 1 || threads[0].ID != threadID {
		t.Fatalf("Expected the new thread in the listing, got %+v", threads)
	}
	if threads[0].PostID == nil {
		t.Error("Expected the listed thread to reference its opening post")
	}

	// The thread view carries the opening post.
	rec = doJSON(t, router, http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 fetching thread, got %d: %s", rec.Code, rec.Body.String())
	}
	var view models.ThreadAndPosts
	decodeBody(t, rec, &view)
	if view.Thread.Subject != "hello board" {
		t.Errorf("Expected subject %q, got %q", "hello board", view.Thread.Subject)
	}
	if len(view.Posts) != 1 || view.Posts[0].Text != "opening text" {
		t.Fatalf("Expected exactly the opening post, got %+v", view.Posts)
	}

	// Another user may not edit or delete.
	rec = doJSON(t, router, http.MethodPut, path, map[string]any{
		"thread_subject": "hijacked", "post_text": "x",
	}, bob)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-owner edit, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodDelete, path, nil, bob)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-owner delete, got %d: %s", rec.Code, rec.Body.String())
	}

	// The owner edits the subject and opening post.
	rec = doJSON(t, router, http.MethodPut, path, map[string]any{
		"thread_subject": "hello again", "post_text": "edited text",
	}, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for owner edit, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, path, nil, nil)
	decodeBody(t, rec, &view)
	if view.Thread.Subject != "hello again" || view.Posts[0].Text != "edited text" {
		t.Errorf("Edit did not stick: %+v", view.Thread)
	}

	// The owner deletes, and the thread is gone.
	rec = doJSON(t, router, http.MethodDelete, path, nil, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for owner delete, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestThreadValidationOverHTTP(t *testing.T) {
	_, router := setupTestApp(t)
	alice := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/threads", map[string]any{
		"post_text": "no subject",
	}, alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing subject, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/threads", map[string]any{
		"thread_subject": strings.Repeat("s", config.MaxSubjectLen+1),
	}, alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an oversized subject, got %d", rec.Code)
	}

	long := strings.Repeat("t", config.MaxPostTextLen+1)
	rec = doJSON(t, router, http.MethodPost, "/api/threads", map[string]any{
		"thread_subject": "fine", "post_text": long,
	}, alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized post text, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/threads/abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric thread id, got %d", rec.Code)
	}
}

func TestEmptyBoardListsNotFound(t *testing.T) {
	_, router := setupTestApp(t)

	rec := doJSON(t, router, http.MethodGet, "/api/threads", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an empty board, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPostLifecycle(t *testing.T) {
	_, router := setupTestApp(t)
	alice := registerUser(t, router, "alice")
	bob := registerUser(t, router, "bob")

	threadID := createThread(t, router, alice, "subject", "op")
	postsPath := "/api/threads/" + strconv.FormatInt(threadID, 10) + "/posts"

	// Bob replies.
	rec := doJSON(t, router, http.MethodPost, postsPath, map[string]any{
		"post_text": "a reply",
	}, bob)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Reply returned %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]int64
	decodeBody(t, rec, &created)
	postPath := "/api/posts/" + strconv.FormatInt(created["post_id"], 10)

	// The thread now lists both posts, oldest first.
	rec = doJSON(t, router, http.MethodGet, postsPath, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 listing posts, got %d: %s", rec.Code, rec.Body.String())
	}
	var posts []models.PostView
	decodeBody(t, rec, &posts)
	if len(posts) != 2 || posts[0].Text != "op" || posts[1].Text != "a reply" {
		t.Fatalf("Unexpected post listing: %+v", posts)
	}

	// Only the author edits or deletes the reply.
	rec = doJSON(t, router, http.MethodPut, postPath, map[string]any{"post_text": "x"}, alice)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-author edit, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPut, postPath, map[string]any{"post_text": "edited reply"}, bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for author edit, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, postPath, nil, nil)
	var post models.PostView
	decodeBody(t, rec, &post)
	if post.Text != "edited reply" {
		t.Errorf("Expected edited text, got %q", post.Text)
	}

	rec = doJSON(t, router, http.MethodDelete, postPath, nil, bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for author delete, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, postPath, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

// TestDeleteOpeningPostOverHTTP: the opening post only goes together with
// its thread.
func TestDeleteOpeningPostOverHTTP(t *testing.T) {
	_, router := setupTestApp(t)
	alice := registerUser(t, router, "alice")

	threadID := createThread(t, router, alice, "subject", "op")

	rec := doJSON(t, router, http.MethodGet, "/api/threads/"+strconv.FormatInt(threadID, 10), nil, nil)
	var view models.ThreadAndPosts
	decodeBody(t, rec, &view)
	if view.Thread.PostID == nil {
		t.Fatal("Expected the thread to reference its opening post")
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/posts/"+strconv.FormatInt(*view.Thread.PostID, 10), nil, alice)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 deleting the opening post alone, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReplyToMissingThread(t *testing.T) {
	_, router := setupTestApp(t)
	alice := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/threads/424242/posts", map[string]any{
		"post_text": "into the void",
	}, alice)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 replying to a missing thread, got %d: %s", rec.Code, rec.Body.String())
	}
}
