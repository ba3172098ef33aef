// tavle/database/queries.go
package database

import (
	"database/sql"

	"tavle/models"
)

// singleRowError maps the shared single-row outcomes: a missing row is
// not-found, an undecodable row is a retrieval failure.
func singleRowError(code string, err error) *Error {
	if err == sql.ErrNoRows {
		return notFound(code + "_not_found")
	}
	if err == errCorruptRow {
		return databaseError(code+"_corrupt", err)
	}
	return databaseError(code+"_retrieve_failed", err)
}

// RetrieveUserByID fetches a single user record.
func (ds *DatabaseService) RetrieveUserByID(userID int64) (models.User, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return models.User{}, derr
	}
	user, err := decodeUser(ds.DB.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE user_id = ?", userID))
	if err != nil {
		return models.User{}, singleRowError("user", err)
	}
	return user, nil
}

// RetrieveUserByName fetches a user by unique name. The session gate resolves
// credentials through this lookup.
func (ds *DatabaseService) RetrieveUserByName(userName string) (models.User, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return models.User{}, derr
	}
	user, err := decodeUser(ds.DB.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE user_name = ?", userName))
	if err != nil {
		return models.User{}, singleRowError("user", err)
	}
	return user, nil
}

// RetrieveImage fetches image metadata by id.
func (ds *DatabaseService) RetrieveImage(imageID int64) (models.Image, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return models.Image{}, derr
	}
	image, err := decodeImage(ds.DB.QueryRow(
		"SELECT "+imageColumns+" FROM images WHERE image_id = ?", imageID))
	if err != nil {
		return models.Image{}, singleRowError("image", err)
	}
	return image, nil
}

// RetrieveThread fetches a single thread record.
func (ds *DatabaseService) RetrieveThread(threadID int64) (models.Thread, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return models.Thread{}, derr
	}
	thread, err := decodeThread(ds.DB.QueryRow(
		"SELECT "+threadColumns+" FROM threads WHERE thread_id = ?", threadID))
	if err != nil {
		return models.Thread{}, singleRowError("thread", err)
	}
	return thread, nil
}

// RetrieveThreads lists all threads, most recently active first. Rows that
// fail to decode are skipped; an empty result reports not-found.
func (ds *DatabaseService) RetrieveThreads() ([]models.Thread, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return nil, derr
	}
	rows, err := ds.DB.Query(
		"SELECT " + threadColumns + " FROM threads ORDER BY thread_last_modified DESC, thread_id DESC")
	if err != nil {
		return nil, databaseError("threads_retrieve_failed", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in RetrieveThreads", "error", err)
		}
	}()

	var threads []models.Thread
	for rows.Next() {
		thread, err := decodeThread(rows)
		if err != nil {
			ds.logger.Error("Failed to decode thread row", "error", err)
			continue
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, databaseError("threads_retrieve_failed", err)
	}
	if len(threads) == 0 {
		return nil, notFound("threads_not_found")
	}
	return threads, nil
}

// RetrievePost fetches a single post record.
func (ds *DatabaseService) RetrievePost(postID int64) (models.Post, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return models.Post{}, derr
	}
	post, err := decodePost(ds.DB.QueryRow(
		"SELECT "+postColumns+" FROM posts WHERE post_id = ?", postID))
	if err != nil {
		return models.Post{}, singleRowError("post", err)
	}
	return post, nil
}

// RetrievePosts lists a thread's posts in insertion order. Same skip and
// empty-result policy as RetrieveThreads.
func (ds *DatabaseService) RetrievePosts(threadID int64) ([]models.Post, error) {
	if derr := ds.ensureAlive(); derr != nil {
		return nil, derr
	}
	rows, err := ds.DB.Query(
		"SELECT "+postColumns+" FROM posts WHERE thread_id = ? ORDER BY post_id ASC", threadID)
	if err != nil {
		return nil, databaseError("posts_retrieve_failed", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in RetrievePosts", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		post, err := decodePost(rows)
		if err != nil {
			ds.logger.Error("Failed to decode post row", "thread_id", threadID, "error", err)
			continue
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, databaseError("posts_retrieve_failed", err)
	}
	if len(posts) == 0 {
		return nil, notFound("posts_not_found")
	}
	return posts, nil
}
