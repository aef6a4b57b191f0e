package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"studytrack/internal/models"
	"studytrack/internal/store"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DBType represents the type of database
type DBType string

const (
	SQLite   DBType = "sqlite3"
	Postgres DBType = "postgres"
)

// SQLStore implements the Store interface for SQL databases
type SQLStore struct {
	db     *sql.DB
	dbType DBType
}

// New creates a new SQLStore with the given driver and connection string
func New(driver, connStr string) (*SQLStore, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{
		db:     db,
		dbType: DBType(driver),
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dbType == SQLite {
		return query
	}
	var result strings.Builder
	argNum := 1
	for _, c := range query {
		if c == '?' {
			result.WriteString(fmt.Sprintf("$%d", argNum))
			argNum++
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

func (s *SQLStore) initSchema() error {
	var usersTable, goalsTable, subjectsTable, chaptersTable, notificationsTable string

	if s.dbType == Postgres {
		usersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);`

		goalsTable = `
		CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			owner_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL
		);`

		subjectsTable = `
		CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			goal_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			tracking_mode TEXT NOT NULL DEFAULT 'SCHEDULE',
			schedule TEXT NOT NULL DEFAULT '',
			total_study_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_target_hours DOUBLE PRECISION,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL
		);`

		chaptersTable = `
		CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			name TEXT NOT NULL,
			target_date TEXT NOT NULL DEFAULT '',
			target_time TEXT NOT NULL DEFAULT '',
			estimated_duration TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		);`

		notificationsTable = `
		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			subject_name TEXT NOT NULL,
			type TEXT NOT NULL,
			scheduled_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			scheduled_time TEXT NOT NULL DEFAULT '',
			scheduled_date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp BIGINT NOT NULL DEFAULT 0,
			owner_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL
		);`
	} else {
		usersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);`

		goalsTable = `
		CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			owner_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`

		subjectsTable = `
		CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			goal_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			tracking_mode TEXT NOT NULL DEFAULT 'SCHEDULE',
			schedule TEXT NOT NULL DEFAULT '',
			total_study_hours REAL NOT NULL DEFAULT 0,
			total_target_hours REAL,
			owner_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`

		chaptersTable = `
		CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			name TEXT NOT NULL,
			target_date TEXT NOT NULL DEFAULT '',
			target_time TEXT NOT NULL DEFAULT '',
			estimated_duration TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`

		notificationsTable = `
		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			subject_name TEXT NOT NULL,
			type TEXT NOT NULL,
			scheduled_hours REAL NOT NULL DEFAULT 0,
			scheduled_time TEXT NOT NULL DEFAULT '',
			scheduled_date TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0,
			timestamp INTEGER NOT NULL DEFAULT 0,
			owner_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(owner_id) REFERENCES users(id)
		);`
	}

	for _, stmt := range []string{usersTable, goalsTable, subjectsTable, chaptersTable, notificationsTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// User functions

func (s *SQLStore) CreateUser(email, passwordHash string) (models.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow(s.rebind("SELECT id FROM users WHERE email = ?"), email).Scan(&existing)
	if err == nil {
		return models.User{}, store.ErrEmailTaken
	}
	if err != sql.ErrNoRows {
		return models.User{}, err
	}

	var id int
	if s.dbType == Postgres {
		err = tx.QueryRow(s.rebind("INSERT INTO users (email, password_hash) VALUES (?, ?) RETURNING id"), email, passwordHash).Scan(&id)
		if err != nil {
			return models.User{}, err
		}
	} else {
		result, err := tx.Exec(s.rebind("INSERT INTO users (email, password_hash) VALUES (?, ?)"), email, passwordHash)
		if err != nil {
			return models.User{}, err
		}
		lastID, err := result.LastInsertId()
		if err != nil {
			return models.User{}, err
		}
		id = int(lastID)
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}
	return models.User{ID: id, Email: email, PasswordHash: passwordHash}, nil
}

func (s *SQLStore) GetUserByEmail(email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRow(s.rebind("SELECT id, email, password_hash FROM users WHERE email = ?"), email).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err == sql.ErrNoRows {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ownerOf looks up which user currently holds the given id in table. Returns
// ErrNotFound when the id is free.
func (s *SQLStore) ownerOf(table, id string) (int, error) {
	var owner int
	err := s.db.QueryRow(s.rebind("SELECT owner_id FROM "+table+" WHERE id = ?"), id).Scan(&owner)
	if err == sql.ErrNoRows {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return owner, nil
}

// Goal functions

func (s *SQLStore) ListGoals(ownerID int) ([]models.Goal, error) {
	rows, err := s.db.Query(s.rebind("SELECT id, title, type, details FROM goals WHERE owner_id = ? ORDER BY created_at ASC, id ASC"), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		var details string
		g.OwnerID = ownerID
		if err := rows.Scan(&g.ID, &g.Title, &g.Type, &details); err != nil {
			return nil, err
		}
		g.Details = rawJSON(details)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *SQLStore) UpsertGoal(ownerID int, g models.Goal) (models.Goal, error) {
	owner, err := s.ownerOf("goals", g.ID)
	switch {
	case err == store.ErrNotFound:
		_, err = s.db.Exec(s.rebind("INSERT INTO goals (id, title, type, details, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
			g.ID, g.Title, g.Type, string(g.Details), ownerID, time.Now())
	case err != nil:
		return models.Goal{}, err
	case owner != ownerID:
		// Id is held by someone else; never re-parent or create a duplicate.
		return models.Goal{}, store.ErrNotFound
	default:
		_, err = s.db.Exec(s.rebind("UPDATE goals SET title = ?, type = ?, details = ? WHERE id = ? AND owner_id = ?"),
			g.Title, g.Type, string(g.Details), g.ID, ownerID)
	}
	if err != nil {
		return models.Goal{}, err
	}
	g.OwnerID = ownerID
	return g, nil
}

func (s *SQLStore) DeleteGoal(ownerID int, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(s.rebind("DELETE FROM goals WHERE id = ? AND owner_id = ?"), id, ownerID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	// Cascade: chapters of the goal's subjects first, then the subjects.
	if _, err := tx.Exec(s.rebind("DELETE FROM chapters WHERE subject_id IN (SELECT id FROM subjects WHERE goal_id = ? AND owner_id = ?)"), id, ownerID); err != nil {
		return err
	}
	if _, err := tx.Exec(s.rebind("DELETE FROM subjects WHERE goal_id = ? AND owner_id = ?"), id, ownerID); err != nil {
		return err
	}

	return tx.Commit()
}

// Subject functions

func (s *SQLStore) ListSubjects(ownerID int) ([]models.Subject, error) {
	rows, err := s.db.Query(s.rebind("SELECT id, goal_id, name, color, tracking_mode, schedule, total_study_hours, total_target_hours FROM subjects WHERE owner_id = ? ORDER BY created_at ASC, id ASC"), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var sub models.Subject
		var schedule string
		var target sql.NullFloat64
		sub.OwnerID = ownerID
		if err := rows.Scan(&sub.ID, &sub.GoalID, &sub.Name, &sub.Color, &sub.TrackingMode, &schedule, &sub.TotalStudyHours, &target); err != nil {
			return nil, err
		}
		sub.Schedule = rawJSON(schedule)
		if target.Valid {
			sub.TotalTargetHours = &target.Float64
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

func (s *SQLStore) UpsertSubject(ownerID int, sub models.Subject) (models.Subject, error) {
	var target any
	if sub.TotalTargetHours != nil {
		target = *sub.TotalTargetHours
	}

	owner, err := s.ownerOf("subjects", sub.ID)
	switch {
	case err == store.ErrNotFound:
		_, err = s.db.Exec(s.rebind("INSERT INTO subjects (id, goal_id, name, color, tracking_mode, schedule, total_study_hours, total_target_hours, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
			sub.ID, sub.GoalID, sub.Name, sub.Color, sub.TrackingMode, string(sub.Schedule), sub.TotalStudyHours, target, ownerID, time.Now())
	case err != nil:
		return models.Subject{}, err
	case owner != ownerID:
		return models.Subject{}, store.ErrNotFound
	default:
		_, err = s.db.Exec(s.rebind("UPDATE subjects SET goal_id = ?, name = ?, color = ?, tracking_mode = ?, schedule = ?, total_study_hours = ?, total_target_hours = ? WHERE id = ? AND owner_id = ?"),
			sub.GoalID, sub.Name, sub.Color, sub.TrackingMode, string(sub.Schedule), sub.TotalStudyHours, target, sub.ID, ownerID)
	}
	if err != nil {
		return models.Subject{}, err
	}
	sub.OwnerID = ownerID
	return sub, nil
}

func (s *SQLStore) DeleteSubject(ownerID int, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(s.rebind("DELETE FROM subjects WHERE id = ? AND owner_id = ?"), id, ownerID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.Exec(s.rebind("DELETE FROM chapters WHERE subject_id = ?"), id); err != nil {
		return err
	}

	return tx.Commit()
}

// Chapter functions
//
// Chapters carry no owner_id; every query joins through the owning subject.

func (s *SQLStore) ListChapters(ownerID int, subjectID string) ([]models.Chapter, error) {
	query := `SELECT c.id, c.subject_id, c.name, c.target_date, c.target_time, c.estimated_duration, c.completed
	          FROM chapters c
	          JOIN subjects s ON c.subject_id = s.id
	          WHERE c.subject_id = ? AND s.owner_id = ?
	          ORDER BY c.created_at ASC, c.id ASC`
	rows, err := s.db.Query(s.rebind(query), subjectID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.Name, &c.TargetDate, &c.TargetTime, &c.EstimatedDuration, &c.Completed); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (s *SQLStore) UpsertChapter(ownerID int, c models.Chapter) (models.Chapter, error) {
	// The target subject must belong to the caller.
	var one int
	err := s.db.QueryRow(s.rebind("SELECT 1 FROM subjects WHERE id = ? AND owner_id = ?"), c.SubjectID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return models.Chapter{}, store.ErrNotFound
	}
	if err != nil {
		return models.Chapter{}, err
	}

	var owner int
	err = s.db.QueryRow(s.rebind("SELECT s.owner_id FROM chapters c JOIN subjects s ON c.subject_id = s.id WHERE c.id = ?"), c.ID).Scan(&owner)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(s.rebind("INSERT INTO chapters (id, subject_id, name, target_date, target_time, estimated_duration, completed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
			c.ID, c.SubjectID, c.Name, c.TargetDate, c.TargetTime, c.EstimatedDuration, c.Completed, time.Now())
	case err != nil:
		return models.Chapter{}, err
	case owner != ownerID:
		return models.Chapter{}, store.ErrNotFound
	default:
		_, err = s.db.Exec(s.rebind("UPDATE chapters SET subject_id = ?, name = ?, target_date = ?, target_time = ?, estimated_duration = ?, completed = ? WHERE id = ?"),
			c.SubjectID, c.Name, c.TargetDate, c.TargetTime, c.EstimatedDuration, c.Completed, c.ID)
	}
	if err != nil {
		return models.Chapter{}, err
	}
	return c, nil
}

func (s *SQLStore) DeleteChapter(ownerID int, id string) error {
	result, err := s.db.Exec(s.rebind("DELETE FROM chapters WHERE id = ? AND subject_id IN (SELECT id FROM subjects WHERE owner_id = ?)"), id, ownerID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Notification functions

func (s *SQLStore) ListNotifications(ownerID int) ([]models.Notification, error) {
	rows, err := s.db.Query(s.rebind("SELECT id, subject_id, subject_name, type, scheduled_hours, scheduled_time, scheduled_date, status, read, timestamp FROM notifications WHERE owner_id = ? ORDER BY created_at ASC, id ASC"), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		n.OwnerID = ownerID
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.SubjectName, &n.Type, &n.ScheduledHours, &n.ScheduledTime, &n.ScheduledDate, &n.Status, &n.Read, &n.Timestamp); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLStore) upsertNotification(ownerID int, n models.Notification) error {
	owner, err := s.ownerOf("notifications", n.ID)
	switch {
	case err == store.ErrNotFound:
		_, err = s.db.Exec(s.rebind("INSERT INTO notifications (id, subject_id, subject_name, type, scheduled_hours, scheduled_time, scheduled_date, status, read, timestamp, owner_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
			n.ID, n.SubjectID, n.SubjectName, n.Type, n.ScheduledHours, n.ScheduledTime, n.ScheduledDate, n.Status, n.Read, n.Timestamp, ownerID, time.Now())
	case err != nil:
		return err
	case owner != ownerID:
		return store.ErrNotFound
	default:
		_, err = s.db.Exec(s.rebind("UPDATE notifications SET subject_id = ?, subject_name = ?, type = ?, scheduled_hours = ?, scheduled_time = ?, scheduled_date = ?, status = ?, read = ?, timestamp = ? WHERE id = ? AND owner_id = ?"),
			n.SubjectID, n.SubjectName, n.Type, n.ScheduledHours, n.ScheduledTime, n.ScheduledDate, n.Status, n.Read, n.Timestamp, n.ID, ownerID)
	}
	return err
}

func (s *SQLStore) SyncNotifications(ownerID int, notifications []models.Notification) ([]models.Notification, error) {
	for _, n := range notifications {
		if err := s.upsertNotification(ownerID, n); err != nil {
			return nil, err
		}
	}
	// Full resynchronization response: the owner's entire current set, not
	// just what was sent.
	return s.ListNotifications(ownerID)
}

// rawJSON converts a stored payload column back to a RawMessage; empty
// columns come back as nil so they round-trip to JSON null/absent.
func rawJSON(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
