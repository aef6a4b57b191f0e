package models

import "encoding/json"

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Credentials is the request body for signup and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Goal types.
const (
	GoalMonthly = "MONTHLY"
	GoalExam    = "EXAM"
)

// Goal is a study goal. IDs are chosen by the client; Details is an opaque
// payload stored verbatim.
type Goal struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Details json.RawMessage `json:"details"`
	OwnerID int             `json:"-"`
}

// TrackingModeSchedule is the default tracking mode for subjects.
const TrackingModeSchedule = "SCHEDULE"

type Subject struct {
	ID               string          `json:"id"`
	GoalID           string          `json:"goalId"`
	Name             string          `json:"name"`
	Color            string          `json:"color"`
	TrackingMode     string          `json:"trackingMode"`
	Schedule         json.RawMessage `json:"schedule,omitempty"`
	TotalStudyHours  float64         `json:"totalStudyHours"`
	TotalTargetHours *float64        `json:"totalTargetHours,omitempty"`
	OwnerID          int             `json:"-"`
}

// Chapter belongs to a Subject. It has no owner column of its own; ownership
// follows the subject.
type Chapter struct {
	ID                string `json:"id"`
	SubjectID         string `json:"subjectId"`
	Name              string `json:"name"`
	TargetDate        string `json:"targetDate"`
	TargetTime        string `json:"targetTime,omitempty"`
	EstimatedDuration string `json:"estimatedDuration,omitempty"`
	Completed         bool   `json:"completed"`
}

// Notification statuses.
const (
	NotificationPending   = "PENDING"
	NotificationCompleted = "COMPLETED"
	NotificationMissed    = "MISSED"
)

// Notification references its subject by snapshot (id plus name copied at
// write time), not by foreign key, so history survives subject renames and
// deletes.
type Notification struct {
	ID             string  `json:"id"`
	SubjectID      string  `json:"subjectId"`
	SubjectName    string  `json:"subjectName"`
	Type           string  `json:"type"`
	ScheduledHours float64 `json:"scheduledHours"`
	ScheduledTime  string  `json:"scheduledTime"`
	ScheduledDate  string  `json:"scheduledDate"`
	Status         string  `json:"status"`
	Read           bool    `json:"read"`
	Timestamp      int64   `json:"timestamp"`
	OwnerID        int     `json:"-"`
}
