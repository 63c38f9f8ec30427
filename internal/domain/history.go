package domain

import (
	"context"
	"time"
)

// SessionRecord is the immutable outcome of one practice attempt.
type SessionRecord struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	CreatedAt            time.Time `json:"createdAt"`
	StressBefore         int       `json:"stressBefore"`
	StressAfter          int       `json:"stressAfter"`
	ExerciseName         string    `json:"exercise"`
	Notes                string    `json:"notes"`
	CompletionPercentage float64   `json:"completionPercentage"`
}

// Decreased reports whether stress went down during the session.
func (r SessionRecord) Decreased() bool {
	return r.StressAfter < r.StressBefore
}

// LoginEvent records one successful authentication.
type LoginEvent struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommunityPost is a post shared to the community board. Comments hold the
// accumulated comment text.
type CommunityPost struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Comments  string    `json:"comments"`
}

// History is everything the aggregate calculator needs for one user.
type History struct {
	Sessions []SessionRecord
	Logins   []LoginEvent
	Posts    []CommunityPost
}

// HistoryRepository is the port for per-user event history.
type HistoryRepository interface {
	LoadHistory(ctx context.Context, userID string) (History, error)
	SaveSessionRecord(ctx context.Context, rec SessionRecord) error
	SaveLoginEvent(ctx context.Context, userID string, at time.Time) error
	// ListSessions returns the user's sessions ordered by time ascending. A
	// non-empty localDay ("2006-01-02") restricts the result to that day.
	ListSessions(ctx context.Context, userID, localDay string) ([]SessionRecord, error)
}

// PostRepository is the port for community posts.
type PostRepository interface {
	SavePost(ctx context.Context, post CommunityPost) error
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]CommunityPost, error)
	GetPost(ctx context.Context, id string) (*CommunityPost, error)
	AppendComment(ctx context.Context, id, text string) error
	DeletePost(ctx context.Context, id string) error
}
