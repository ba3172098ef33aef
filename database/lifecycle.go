// tavle/database/lifecycle.go
//
// The thread/post lifecycle manager. Every write here runs in a single
// transaction: a thread that references a missing post, or a post whose
// thread is gone, is never observable outside a rolled-back transaction.
package database

import (
	"database/sql"
	"errors"
	"strings"

	"tavle/utils"

	"github.com/mattn/go-sqlite3"
)

// classifyWrite converts a storage error into the taxonomy: uniqueness
// violations become conflicts, foreign key violations mean the caller named
// a row that does not exist, everything else is a database failure.
func classifyWrite(code string, err error) *Error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return conflict(code, err)
		case sqlite3.ErrConstraintForeignKey:
			return &Error{Kind: KindBadRequest, Code: code, Err: err}
		}
	}
	return databaseError(code, err)
}

// InsertUser registers a new user. A duplicate user_name is a distinct
// conflict, not a generic failure.
func (ds *DatabaseService) InsertUser(userName, passwordHash string, userGroup int64) (int64, error) {
	if strings.TrimSpace(userName) == "" {
		return 0, badRequest("missing_user_name")
	}
	if passwordHash == "" {
		return 0, badRequest("missing_password_hash")
	}
	if derr := ds.ensureAlive(); derr != nil {
		return 0, derr
	}

	res, err := ds.DB.Exec(
		"INSERT INTO users (user_name, user_password_hash, user_group, user_timestamp) VALUES (?, ?, ?, ?)",
		userName, passwordHash, userGroup, utils.GetUnixTime())
	if err != nil {
		return 0, classifyWrite("user_insert_failed", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, databaseError("user_insert_failed", err)
	}
	ds.logger.Info("User created", "user_id", userID)
	return userID, nil
}

// InsertImage records image metadata. The caller writes the file to storage
// only after this row exists.
func (ds *DatabaseService) InsertImage(userID int64, fileName, fileExtension string) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}
	if fileName == "" {
		return 0, badRequest("missing_image_file_name")
	}
	if derr := ds.ensureAlive(); derr != nil {
		return 0, derr
	}

	res, err := ds.DB.Exec(
		"INSERT INTO images (user_id, image_file_name, image_file_extension, image_timestamp) VALUES (?, ?, ?, ?)",
		userID, fileName, fileExtension, utils.GetUnixTime())
	if err != nil {
		return 0, classifyWrite("image_insert_failed", err)
	}
	imageID, err := res.LastInsertId()
	if err != nil {
		return 0, databaseError("image_insert_failed", err)
	}
	return imageID, nil
}

// InsertThread creates a thread together with its opening post: thread row
// first (post_id NULL), then the post, then the back-reference. All three
// statements commit together or not at all.
func (ds *DatabaseService) InsertThread(userID int64, threadSubject, postText string, imageID sql.NullInt64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}
	if strings.TrimSpace(threadSubject) == "" {
		return 0, badRequest("missing_thread_subject")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "InsertThread")

	now := utils.GetUnixTime()
	res, err := tx.Exec(
		"INSERT INTO threads (user_id, post_id, thread_subject, thread_timestamp, thread_last_modified) VALUES (?, NULL, ?, ?, ?)",
		userID, threadSubject, now, now)
	if err != nil {
		return 0, classifyWrite("thread_insert_failed", err)
	}
	threadID, err := res.LastInsertId()
	if err != nil {
		return 0, databaseError("thread_insert_failed", err)
	}

	res, err = tx.Exec(
		"INSERT INTO posts (thread_id, user_id, image_id, post_text, post_timestamp, post_last_modified) VALUES (?, ?, ?, ?, ?, ?)",
		threadID, userID, imageID, postText, now, now)
	if err != nil {
		return 0, classifyWrite("opening_post_insert_failed", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, databaseError("opening_post_insert_failed", err)
	}

	if _, err := tx.Exec("UPDATE threads SET post_id = ? WHERE thread_id = ?", postID, threadID); err != nil {
		return 0, classifyWrite("thread_backfill_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	ds.logger.Info("Thread created", "thread_id", threadID, "post_id", postID, "user_id", userID)
	return threadID, nil
}

// UpdateThread rewrites a thread's subject and, when the thread has an
// opening post, that post's text and image reference. Only the creating user
// may update.
func (ds *DatabaseService) UpdateThread(userID, threadID int64, threadSubject, postText string, imageID sql.NullInt64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}
	if strings.TrimSpace(threadSubject) == "" {
		return 0, badRequest("missing_thread_subject")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "UpdateThread")

	ownerID, openingPostID, derr := lookupThread(tx, threadID)
	if derr != nil {
		return 0, derr
	}
	if ownerID != userID {
		return 0, forbidden("not_thread_owner")
	}

	now := utils.GetUnixTime()
	if openingPostID.Valid {
		if _, err := tx.Exec(
			"UPDATE posts SET post_text = ?, image_id = ?, post_last_modified = ? WHERE post_id = ?",
			postText, imageID, now, openingPostID.Int64); err != nil {
			return 0, classifyWrite("opening_post_update_failed", err)
		}
	} else {
		// A committed thread always has an opening post; tolerate the legacy
		// case by updating the thread row alone.
		ds.logger.Warn("Thread has no opening post, skipping post update", "thread_id", threadID)
	}

	if _, err := tx.Exec(
		"UPDATE threads SET thread_subject = ?, thread_last_modified = ? WHERE thread_id = ?",
		threadSubject, now, threadID); err != nil {
		return 0, classifyWrite("thread_update_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	return threadID, nil
}

// DeleteThread removes a thread, its opening post, and (through the schema's
// cascade) its replies. Images referenced by deleted posts are left behind.
func (ds *DatabaseService) DeleteThread(userID, threadID int64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "DeleteThread")

	ownerID, openingPostID, derr := lookupThread(tx, threadID)
	if derr != nil {
		return 0, derr
	}
	if ownerID != userID {
		return 0, forbidden("not_thread_owner")
	}

	if openingPostID.Valid {
		if _, err := tx.Exec("DELETE FROM posts WHERE post_id = ?", openingPostID.Int64); err != nil {
			return 0, classifyWrite("opening_post_delete_failed", err)
		}
	}
	if _, err := tx.Exec("DELETE FROM threads WHERE thread_id = ?", threadID); err != nil {
		return 0, classifyWrite("thread_delete_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	ds.logger.Info("Thread deleted", "thread_id", threadID, "user_id", userID)
	return threadID, nil
}

// InsertPost appends a reply to an existing thread. The thread's post_id
// back-reference names only the opening post and is not touched; the
// thread's last-modified stamp is bumped on every reply.
func (ds *DatabaseService) InsertPost(userID, threadID int64, postText string, imageID sql.NullInt64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "InsertPost")

	if _, _, derr := lookupThread(tx, threadID); derr != nil {
		return 0, derr
	}

	now := utils.GetUnixTime()
	res, err := tx.Exec(
		"INSERT INTO posts (thread_id, user_id, image_id, post_text, post_timestamp, post_last_modified) VALUES (?, ?, ?, ?, ?, ?)",
		threadID, userID, imageID, postText, now, now)
	if err != nil {
		return 0, classifyWrite("post_insert_failed", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, databaseError("post_insert_failed", err)
	}

	if _, err := tx.Exec("UPDATE threads SET thread_last_modified = ? WHERE thread_id = ?", now, threadID); err != nil {
		return 0, classifyWrite("thread_bump_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	return postID, nil
}

// UpdatePost rewrites a post's text and image reference. Only the author may
// update.
func (ds *DatabaseService) UpdatePost(userID, postID int64, postText string, imageID sql.NullInt64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "UpdatePost")

	authorID, threadID, derr := lookupPost(tx, postID)
	if derr != nil {
		return 0, derr
	}
	if authorID != userID {
		return 0, forbidden("not_post_author")
	}

	now := utils.GetUnixTime()
	if _, err := tx.Exec(
		"UPDATE posts SET post_text = ?, image_id = ?, post_last_modified = ? WHERE post_id = ?",
		postText, imageID, now, postID); err != nil {
		return 0, classifyWrite("post_update_failed", err)
	}
	if _, err := tx.Exec("UPDATE threads SET thread_last_modified = ? WHERE thread_id = ?", now, threadID); err != nil {
		return 0, classifyWrite("thread_bump_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	return postID, nil
}

// DeletePost removes a reply post. The opening post can only go together
// with its thread, through DeleteThread; deleting it alone would leave an
// active thread without an opening post.
func (ds *DatabaseService) DeletePost(userID, postID int64) (int64, error) {
	if userID <= 0 {
		return 0, badRequest("missing_user_id")
	}

	tx, derr := ds.begin()
	if derr != nil {
		return 0, derr
	}
	defer ds.rollback(tx, "DeletePost")

	authorID, threadID, derr := lookupPost(tx, postID)
	if derr != nil {
		return 0, derr
	}
	if authorID != userID {
		return 0, forbidden("not_post_author")
	}

	var isOpening bool
	err := tx.QueryRow("SELECT post_id IS NOT NULL AND post_id = ? FROM threads WHERE thread_id = ?", postID, threadID).Scan(&isOpening)
	if err != nil && err != sql.ErrNoRows {
		return 0, databaseError("post_delete_failed", err)
	}
	if isOpening {
		return 0, badRequest("post_is_opening")
	}

	if _, err := tx.Exec("DELETE FROM posts WHERE post_id = ?", postID); err != nil {
		return 0, classifyWrite("post_delete_failed", err)
	}
	if _, err := tx.Exec("UPDATE threads SET thread_last_modified = ? WHERE thread_id = ?", utils.GetUnixTime(), threadID); err != nil {
		return 0, classifyWrite("thread_bump_failed", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, databaseError("commit_failed", err)
	}
	return postID, nil
}

// lookupThread resolves a thread's owner and opening post inside tx.
func lookupThread(tx *sql.Tx, threadID int64) (ownerID int64, openingPostID sql.NullInt64, derr *Error) {
	err := tx.QueryRow("SELECT user_id, post_id FROM threads WHERE thread_id = ?", threadID).
		Scan(&ownerID, &openingPostID)
	if err == sql.ErrNoRows {
		return 0, sql.NullInt64{}, notFound("thread_not_found")
	}
	if err != nil {
		return 0, sql.NullInt64{}, databaseError("thread_lookup_failed", err)
	}
	return ownerID, openingPostID, nil
}

// lookupPost resolves a post's author and owning thread inside tx.
func lookupPost(tx *sql.Tx, postID int64) (authorID, threadID int64, derr *Error) {
	err := tx.QueryRow("SELECT user_id, thread_id FROM posts WHERE post_id = ?", postID).
		Scan(&authorID, &threadID)
	if err == sql.ErrNoRows {
		return 0, 0, notFound("post_not_found")
	}
	if err != nil {
		return 0, 0, databaseError("post_lookup_failed", err)
	}
	return authorID, threadID, nil
}
