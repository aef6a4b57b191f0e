package sqlstore

import (
	"path/filepath"
	"testing"

	"studytrack/internal/models"
	"studytrack/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := New("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func twoUsers(t *testing.T, s *SQLStore) (models.User, models.User) {
	t.Helper()
	a, err := s.CreateUser("a@x.com", "hash-a")
	require.NoError(t, err)
	b, err := s.CreateUser("b@x.com", "hash-b")
	require.NoError(t, err)
	return a, b
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateUser("a@x.com", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser("a@x.com", "other-hash")
	require.ErrorIs(t, err, store.ErrEmailTaken)

	// The original row is untouched.
	u, err := s.GetUserByEmail("a@x.com")
	require.NoError(t, err)
	require.Equal(t, "hash", u.PasswordHash)
}

func TestGetUserByEmailMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetUserByEmail("nobody@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertGoalIdempotent(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	goal := models.Goal{ID: "g1", Title: "Finals", Type: models.GoalExam, Details: []byte(`{"month":"June"}`)}
	_, err := s.UpsertGoal(a.ID, goal)
	require.NoError(t, err)

	goal.Title = "Finals 2026"
	_, err = s.UpsertGoal(a.ID, goal)
	require.NoError(t, err)

	goals, err := s.ListGoals(a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	require.Equal(t, "Finals 2026", goals[0].Title)
	require.JSONEq(t, `{"month":"June"}`, string(goals[0].Details))
}

func TestUpsertGoalCrossOwnerCollision(t *testing.T) {
	s := newTestStore(t)
	a, b := twoUsers(t, s)

	_, err := s.UpsertGoal(a.ID, models.Goal{ID: "g1", Title: "Mine", Type: models.GoalMonthly})
	require.NoError(t, err)

	// B reusing A's id must neither steal nor duplicate the row.
	_, err = s.UpsertGoal(b.ID, models.Goal{ID: "g1", Title: "Stolen", Type: models.GoalMonthly})
	require.ErrorIs(t, err, store.ErrNotFound)

	bGoals, err := s.ListGoals(b.ID)
	require.NoError(t, err)
	require.Empty(t, bGoals)

	aGoals, err := s.ListGoals(a.ID)
	require.NoError(t, err)
	require.Len(t, aGoals, 1)
	require.Equal(t, "Mine", aGoals[0].Title)
}

func TestDeleteGoalScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	a, b := twoUsers(t, s)

	_, err := s.UpsertGoal(a.ID, models.Goal{ID: "g1", Title: "Mine", Type: models.GoalMonthly})
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteGoal(b.ID, "g1"), store.ErrNotFound)

	aGoals, err := s.ListGoals(a.ID)
	require.NoError(t, err)
	require.Len(t, aGoals, 1)
}

func TestDeleteGoalCascades(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	_, err := s.UpsertGoal(a.ID, models.Goal{ID: "g1", Title: "Finals", Type: models.GoalExam})
	require.NoError(t, err)
	_, err = s.UpsertSubject(a.ID, models.Subject{ID: "s1", GoalID: "g1", Name: "Math", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertSubject(a.ID, models.Subject{ID: "s2", GoalID: "g1", Name: "Physics", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertSubject(a.ID, models.Subject{ID: "s3", GoalID: "other", Name: "History", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertChapter(a.ID, models.Chapter{ID: "c1", SubjectID: "s1", Name: "Algebra", TargetDate: "2026-06-01"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGoal(a.ID, "g1"))

	subjects, err := s.ListSubjects(a.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, "s3", subjects[0].ID)

	chapters, err := s.ListChapters(a.ID, "s1")
	require.NoError(t, err)
	require.Empty(t, chapters)
}

func TestDeleteSubjectCascadesChapters(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	_, err := s.UpsertSubject(a.ID, models.Subject{ID: "s1", GoalID: "g1", Name: "Math", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertChapter(a.ID, models.Chapter{ID: "c1", SubjectID: "s1", Name: "Algebra", TargetDate: "2026-06-01"})
	require.NoError(t, err)
	_, err = s.UpsertChapter(a.ID, models.Chapter{ID: "c2", SubjectID: "s1", Name: "Geometry", TargetDate: "2026-06-15"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSubject(a.ID, "s1"))

	chapters, err := s.ListChapters(a.ID, "s1")
	require.NoError(t, err)
	require.Empty(t, chapters)
}

func TestSubjectOptionalTargetHours(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	target := 40.0
	_, err := s.UpsertSubject(a.ID, models.Subject{ID: "s1", GoalID: "g1", Name: "Math", TrackingMode: models.TrackingModeSchedule, TotalStudyHours: 2.5, TotalTargetHours: &target})
	require.NoError(t, err)
	_, err = s.UpsertSubject(a.ID, models.Subject{ID: "s2", GoalID: "g1", Name: "Physics", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)

	subjects, err := s.ListSubjects(a.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.NotNil(t, subjects[0].TotalTargetHours)
	require.Equal(t, 40.0, *subjects[0].TotalTargetHours)
	require.Equal(t, 2.5, subjects[0].TotalStudyHours)
	require.Nil(t, subjects[1].TotalTargetHours)
}

func TestChapterOwnershipThroughSubject(t *testing.T) {
	s := newTestStore(t)
	a, b := twoUsers(t, s)

	_, err := s.UpsertSubject(a.ID, models.Subject{ID: "s1", GoalID: "g1", Name: "Math", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertChapter(a.ID, models.Chapter{ID: "c1", SubjectID: "s1", Name: "Algebra", TargetDate: "2026-06-01"})
	require.NoError(t, err)

	// B cannot attach a chapter to A's subject.
	_, err = s.UpsertChapter(b.ID, models.Chapter{ID: "c2", SubjectID: "s1", Name: "Sneaky", TargetDate: "2026-06-01"})
	require.ErrorIs(t, err, store.ErrNotFound)

	// B cannot overwrite or delete A's chapter, even via B's own subject.
	_, err = s.UpsertSubject(b.ID, models.Subject{ID: "sb", GoalID: "gb", Name: "Theirs", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertChapter(b.ID, models.Chapter{ID: "c1", SubjectID: "sb", Name: "Hijack", TargetDate: "2026-06-01"})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.DeleteChapter(b.ID, "c1"), store.ErrNotFound)

	chapters, err := s.ListChapters(a.ID, "s1")
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.Equal(t, "Algebra", chapters[0].Name)
}

func TestListChaptersScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	a, b := twoUsers(t, s)

	_, err := s.UpsertSubject(a.ID, models.Subject{ID: "s1", GoalID: "g1", Name: "Math", TrackingMode: models.TrackingModeSchedule})
	require.NoError(t, err)
	_, err = s.UpsertChapter(a.ID, models.Chapter{ID: "c1", SubjectID: "s1", Name: "Algebra", TargetDate: "2026-06-01"})
	require.NoError(t, err)

	chapters, err := s.ListChapters(b.ID, "s1")
	require.NoError(t, err)
	require.Empty(t, chapters)
}

func TestSyncNotifications(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	n1 := models.Notification{ID: "n1", SubjectID: "s1", SubjectName: "Math", Type: "REMINDER", ScheduledHours: 1.5, ScheduledTime: "18:00", ScheduledDate: "2026-06-01", Status: models.NotificationPending, Timestamp: 1700000000}
	n2 := models.Notification{ID: "n2", SubjectID: "s1", SubjectName: "Math", Type: "REMINDER", ScheduledHours: 2, ScheduledTime: "19:00", ScheduledDate: "2026-06-02", Status: models.NotificationCompleted, Timestamp: 1700000001}

	all, err := s.SyncNotifications(a.ID, []models.Notification{n1, n2})
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Resync n1 with a new status: count stays 2, n2 is untouched.
	n1.Status = models.NotificationCompleted
	all, err = s.SyncNotifications(a.ID, []models.Notification{n1})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID := map[string]models.Notification{}
	for _, n := range all {
		byID[n.ID] = n
	}
	require.Equal(t, models.NotificationCompleted, byID["n1"].Status)
	require.Equal(t, models.NotificationCompleted, byID["n2"].Status)
	require.Equal(t, "2026-06-02", byID["n2"].ScheduledDate)
}

func TestSyncNotificationsCrossOwner(t *testing.T) {
	s := newTestStore(t)
	a, b := twoUsers(t, s)

	n := models.Notification{ID: "n1", SubjectID: "s1", SubjectName: "Math", Type: "REMINDER", Status: models.NotificationPending}
	_, err := s.SyncNotifications(a.ID, []models.Notification{n})
	require.NoError(t, err)

	n.Status = models.NotificationMissed
	_, err = s.SyncNotifications(b.ID, []models.Notification{n})
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListNotifications(a.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, models.NotificationPending, all[0].Status)

	bAll, err := s.ListNotifications(b.ID)
	require.NoError(t, err)
	require.Empty(t, bAll)
}

func TestListInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	a, _ := twoUsers(t, s)

	for _, id := range []string{"z", "a", "m"} {
		_, err := s.UpsertGoal(a.ID, models.Goal{ID: id, Title: id, Type: models.GoalMonthly})
		require.NoError(t, err)
	}

	goals, err := s.ListGoals(a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	require.Equal(t, "z", goals[0].ID)
	require.Equal(t, "a", goals[1].ID)
	require.Equal(t, "m", goals[2].ID)
}
