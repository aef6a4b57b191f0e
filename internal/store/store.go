package store

import (
	"errors"

	"studytrack/internal/models"
)

// Sentinel errors surfaced by Store implementations.
var (
	// ErrNotFound means no row with the given id exists for this owner.
	// Implementations also return it when the id exists under a different
	// owner, so callers cannot probe the global id namespace.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken means a user with that email already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Store defines the interface for all database operations. Every entity
// operation takes the authenticated owner's id and filters by it inside the
// query itself.
type Store interface {
	// Users
	CreateUser(email, passwordHash string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)

	// Goals
	ListGoals(ownerID int) ([]models.Goal, error)
	UpsertGoal(ownerID int, goal models.Goal) (models.Goal, error)
	// DeleteGoal removes the goal and cascades to its subjects and their
	// chapters.
	DeleteGoal(ownerID int, id string) error

	// Subjects
	ListSubjects(ownerID int) ([]models.Subject, error)
	UpsertSubject(ownerID int, subject models.Subject) (models.Subject, error)
	// DeleteSubject removes the subject and cascades to its chapters.
	DeleteSubject(ownerID int, id string) error

	// Chapters (ownership enforced through the owning subject)
	ListChapters(ownerID int, subjectID string) ([]models.Chapter, error)
	UpsertChapter(ownerID int, chapter models.Chapter) (models.Chapter, error)
	DeleteChapter(ownerID int, id string) error

	// Notifications
	ListNotifications(ownerID int) ([]models.Notification, error)
	// SyncNotifications upserts each notification, then returns the owner's
	// full current set.
	SyncNotifications(ownerID int, notifications []models.Notification) ([]models.Notification, error)

	Close() error
}
