package sqlite

const schema = `
-- Word lists group the words a session is studied against.
CREATE TABLE IF NOT EXISTS word_lists (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- The word catalog.
CREATE TABLE IF NOT EXISTS words (
    id            TEXT PRIMARY KEY,
    list_id       TEXT NOT NULL,
    term          TEXT NOT NULL,
    translation   TEXT NOT NULL DEFAULT '',
    example       TEXT NOT NULL DEFAULT '',
    language_code TEXT NOT NULL,
    created_at    DATETIME NOT NULL,

    FOREIGN KEY(list_id) REFERENCES word_lists(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_words_list ON words(list_id, created_at);

-- One learning record per word. Scheduler fields (state, step, stability,
-- difficulty, due, last_review) are written as a unit by the engine.
CREATE TABLE IF NOT EXISTS word_progress (
    word_id         TEXT PRIMARY KEY,
    state           INTEGER NOT NULL,
    step            INTEGER,
    stability       REAL,
    difficulty      REAL,
    due             DATETIME NOT NULL,
    last_review     DATETIME,
    reps            INTEGER NOT NULL DEFAULT 0,
    lapses          INTEGER NOT NULL DEFAULT 0,
    total_reviews   INTEGER NOT NULL DEFAULT 0,
    correct_reviews INTEGER NOT NULL DEFAULT 0,
    is_new          INTEGER NOT NULL DEFAULT 1,
    is_starred      INTEGER NOT NULL DEFAULT 0,
    mastery_level   INTEGER NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL,

    FOREIGN KEY(word_id) REFERENCES words(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_progress_due ON word_progress(is_new, due);

-- Study sessions and their terminal aggregates.
CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    type             TEXT NOT NULL,
    list_id          TEXT NOT NULL,
    new_count        INTEGER NOT NULL DEFAULT 0,
    review_count     INTEGER NOT NULL DEFAULT 0,
    correct_count    INTEGER NOT NULL DEFAULT 0,
    incorrect_count  INTEGER NOT NULL DEFAULT 0,
    starred_delta    INTEGER NOT NULL DEFAULT 0,
    started_at       DATETIME NOT NULL,
    finished_at      DATETIME,
    duration_seconds INTEGER NOT NULL DEFAULT 0
);

-- Append-only review log, scoped to a session.
CREATE TABLE IF NOT EXISTS review_logs (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    word_id     TEXT NOT NULL,
    rating      INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    payload     TEXT NOT NULL,

    FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_review_logs_session ON review_logs(session_id, reviewed_at);
`
