package postgres

// schema is the relational system-of-record layout. users.email UNIQUE is
// load-bearing: it closes the duplicate-registration race at promotion time.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                  BIGSERIAL PRIMARY KEY,
    name                TEXT NOT NULL,
    email               TEXT NOT NULL UNIQUE,
    hashed_password     TEXT NOT NULL,
    role                TEXT NOT NULL CHECK (role IN ('student', 'teacher')),
    profile_picture_url TEXT,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS courses (
    id          BIGSERIAL PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT,
    section     TEXT,
    code        TEXT NOT NULL UNIQUE,
    teacher_id  BIGINT REFERENCES users(id) ON DELETE SET NULL,
    status      TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS course_enrollments (
    course_id   BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    enrolled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (course_id, user_id)
);

CREATE TABLE IF NOT EXISTS posts (
    id        BIGSERIAL PRIMARY KEY,
    course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    text      TEXT,
    type      TEXT NOT NULL CHECK (type IN ('announcement', 'post')),
    timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comments (
    id        BIGSERIAL PRIMARY KEY,
    post_id   BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    text      TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assignments (
    id          BIGSERIAL PRIMARY KEY,
    course_id   BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    description TEXT,
    due_date    TIMESTAMPTZ NOT NULL,
    allow_late  BOOLEAN NOT NULL DEFAULT TRUE,
    max_points  INTEGER NOT NULL DEFAULT 100
);

CREATE TABLE IF NOT EXISTS submissions (
    id              BIGSERIAL PRIMARY KEY,
    assignment_id   BIGINT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
    student_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    submission_text TEXT,
    timestamp       TIMESTAMPTZ NOT NULL DEFAULT now(),
    grade           INTEGER,
    is_late         BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (assignment_id, student_id)
);

CREATE TABLE IF NOT EXISTS attachments (
    id       BIGSERIAL PRIMARY KEY,
    owner_id BIGINT NOT NULL,
    kind     TEXT NOT NULL CHECK (kind IN ('post', 'assignment', 'submission')),
    key      TEXT NOT NULL,
    filename TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
    id           BIGSERIAL PRIMARY KEY,
    user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type         TEXT NOT NULL,
    reference_id BIGINT,
    is_read      BOOLEAN NOT NULL DEFAULT FALSE,
    timestamp    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user_unread
    ON notifications (user_id) WHERE NOT is_read;
CREATE INDEX IF NOT EXISTS idx_posts_course_time ON posts (course_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_submissions_assignment ON submissions (assignment_id);
CREATE INDEX IF NOT EXISTS idx_attachments_owner ON attachments (kind, owner_id);
`
