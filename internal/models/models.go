// Package models defines the data records persisted by the storage layer
// and the request/response shapes exchanged over the HTTP surface.
package models

import "time"

// User is a tracked account identified by a globally unique username.
// A user is created on the first POST with an unseen username and is
// never mutated afterwards.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Exercise is a single logged activity owned by exactly one user.
// Exercises are immutable once created.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    int
	Date        time.Time
}

// ExerciseFilter restricts which exercises a log query returns.
// A bound takes effect only when the matching Has flag is set;
// Limit == 0 means unlimited.
type ExerciseFilter struct {
	From    time.Time
	HasFrom bool
	To      time.Time
	HasTo   bool
	Limit   int
}

// UserView is the public projection of a user.
type UserView struct {
	Username string `json:"username"`
	ID       string `json:"_id"`
}

// ExerciseView combines the owning user with the freshly appended
// exercise. Date carries the display-formatted rendering, never the
// stored calendar value.
type ExerciseView struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntry is a single exercise inside a log view.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogView is the filtered, optionally limited view over a user's
// exercises. Count always equals len(Log).
type LogView struct {
	Username string     `json:"username"`
	Count    int        `json:"count"`
	ID       string     `json:"_id"`
	Log      []LogEntry `json:"log"`
}

// InternalStatsResponse reports collection totals for the internal
// stats endpoint.
type InternalStatsResponse struct {
	Users     int64 `json:"users"`
	Exercises int64 `json:"exercises"`
}

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
