package database

const schema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name TEXT NOT NULL UNIQUE,
	user_password_hash TEXT NOT NULL,
	user_group INTEGER DEFAULT 0,
	user_timestamp INTEGER
);
CREATE TABLE IF NOT EXISTS images (
	image_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	image_file_name TEXT NOT NULL UNIQUE,
	image_file_extension TEXT NOT NULL,
	image_timestamp INTEGER,
	FOREIGN KEY (user_id) REFERENCES users(user_id)
);
CREATE TABLE IF NOT EXISTS threads (
	thread_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	post_id INTEGER, -- opening post back-reference, NULL only mid-creation
	thread_subject TEXT NOT NULL,
	thread_timestamp INTEGER,
	thread_last_modified INTEGER,
	FOREIGN KEY (user_id) REFERENCES users(user_id),
	FOREIGN KEY (post_id) REFERENCES posts(post_id) ON DELETE SET NULL
);
CREATE TABLE IF NOT EXISTS posts (
	post_id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	image_id INTEGER,
	post_text TEXT NOT NULL DEFAULT '',
	post_timestamp INTEGER,
	post_last_modified INTEGER,
	FOREIGN KEY (thread_id) REFERENCES threads(thread_id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(user_id),
	FOREIGN KEY (image_id) REFERENCES images(image_id) ON DELETE SET NULL
);

-- --- INDEXES ---
CREATE INDEX IF NOT EXISTS idx_posts_thread ON posts(thread_id);
CREATE INDEX IF NOT EXISTS idx_threads_last_modified ON threads(thread_last_modified DESC);
`
