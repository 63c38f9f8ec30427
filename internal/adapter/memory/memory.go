// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stressless/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	users        []*domain.User
	authSessions map[string]*domain.AuthSession
	exercises    []domain.ExerciseDefinition
	records      []domain.SessionRecord
	logins       []domain.LoginEvent
	posts        []domain.CommunityPost
	achievements map[string]map[string]domain.AchievementStatus
}

// New creates a new in-memory database seeded with the default exercises.
func New() *DB {
	return &DB{
		authSessions: make(map[string]*domain.AuthSession),
		exercises:    domain.DefaultExercises(),
		achievements: make(map[string]map[string]domain.AchievementStatus),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.CatalogRepository = (*DB)(nil)
var _ domain.HistoryRepository = (*DB)(nil)
var _ domain.PostRepository = (*DB)(nil)
var _ domain.AchievementRepository = (*DB)(nil)
var _ domain.AuthSessionRepository = (*SessionRepo)(nil)

// --- CatalogRepository ---

// LoadCatalog returns a copy of every exercise in insertion order.
func (db *DB) LoadCatalog(ctx context.Context) ([]domain.ExerciseDefinition, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.ExerciseDefinition, len(db.exercises))
	copy(out, db.exercises)
	return out, nil
}

// AddExercise appends def unless its name is taken.
func (db *DB) AddExercise(ctx context.Context, def domain.ExerciseDefinition) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.exerciseIndex(def.Name) >= 0 {
		return domain.ErrExerciseExists
	}
	db.exercises = append(db.exercises, def)
	return nil
}

// UpdateExercise replaces the exercise stored under name.
func (db *DB) UpdateExercise(ctx context.Context, name string, def domain.ExerciseDefinition) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.exerciseIndex(name)
	if i < 0 {
		return domain.ErrNotFound
	}
	if def.Name != name && db.exerciseIndex(def.Name) >= 0 {
		return domain.ErrExerciseExists
	}
	db.exercises[i] = def
	return nil
}

// DeleteExercise removes the exercise stored under name.
func (db *DB) DeleteExercise(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.exerciseIndex(name)
	if i < 0 {
		return domain.ErrNotFound
	}
	db.exercises = append(db.exercises[:i], db.exercises[i+1:]...)
	return nil
}

func (db *DB) exerciseIndex(name string) int {
	for i, e := range db.exercises {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// --- HistoryRepository ---

// LoadHistory returns copies of the user's sessions, logins and posts.
func (db *DB) LoadHistory(ctx context.Context, userID string) (domain.History, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var h domain.History
	for _, r := range db.records {
		if r.UserID == userID {
			h.Sessions = append(h.Sessions, r)
		}
	}
	for _, l := range db.logins {
		if l.UserID == userID {
			h.Logins = append(h.Logins, l)
		}
	}
	for _, p := range db.posts {
		if p.UserID == userID {
			h.Posts = append(h.Posts, p)
		}
	}
	return h, nil
}

// SaveSessionRecord appends rec.
func (db *DB) SaveSessionRecord(ctx context.Context, rec domain.SessionRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	rec.CreatedAt = rec.CreatedAt.UTC()
	db.records = append(db.records, rec)
	return nil
}

// SaveLoginEvent appends a login for userID at at.
func (db *DB) SaveLoginEvent(ctx context.Context, userID string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.logins = append(db.logins, domain.LoginEvent{UserID: userID, CreatedAt: at.UTC()})
	return nil
}

// ListSessions returns the user's sessions oldest first, optionally limited
// to one local calendar day.
func (db *DB) ListSessions(ctx context.Context, userID, localDay string) ([]domain.SessionRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var start, end time.Time
	if localDay != "" {
		dayStart, err := time.ParseInLocation("2006-01-02", localDay, time.Local)
		if err != nil {
			return nil, err
		}
		start, end = dayStart, dayStart.AddDate(0, 0, 1)
	}

	var out []domain.SessionRecord
	for _, r := range db.records {
		if r.UserID != userID {
			continue
		}
		if localDay != "" && (r.CreatedAt.Before(start) || !r.CreatedAt.Before(end)) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- PostRepository ---

// SavePost appends post.
func (db *DB) SavePost(ctx context.Context, post domain.CommunityPost) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	post.CreatedAt = post.CreatedAt.UTC()
	db.posts = append(db.posts, post)
	return nil
}

// ListPosts returns every post, newest first.
func (db *DB) ListPosts(ctx context.Context) ([]domain.CommunityPost, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.CommunityPost, len(db.posts))
	copy(out, db.posts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetPost returns the post with id.
func (db *DB) GetPost(ctx context.Context, id string) (*domain.CommunityPost, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.postIndex(id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	p := db.posts[i]
	return &p, nil
}

// AppendComment appends text to the post's comments.
func (db *DB) AppendComment(ctx context.Context, id, text string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.postIndex(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	db.posts[i].Comments += text
	return nil
}

// DeletePost removes the post with id.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.postIndex(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	db.posts = append(db.posts[:i], db.posts[i+1:]...)
	return nil
}

func (db *DB) postIndex(id string) int {
	for i, p := range db.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// --- AchievementRepository ---

// LoadAchievementStatuses returns the user's statuses ordered by name.
func (db *DB) LoadAchievementStatuses(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.AchievementStatus
	for _, s := range db.achievements[userID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveAchievementStatus marks name earned. An existing earn timestamp is kept.
func (db *DB) SaveAchievementStatus(ctx context.Context, userID, name string, earnedAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	byName := db.achievements[userID]
	if byName == nil {
		byName = make(map[string]domain.AchievementStatus)
		db.achievements[userID] = byName
	}
	st := byName[name]
	st.UserID, st.Name = userID, name
	st, _ = st.Earn(earnedAt.UTC())
	byName[name] = st
	return nil
}

// SeedAchievementStatuses adds unearned statuses for names the user lacks.
func (db *DB) SeedAchievementStatuses(ctx context.Context, userID string, names []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	byName := db.achievements[userID]
	if byName == nil {
		byName = make(map[string]domain.AchievementStatus)
		db.achievements[userID] = byName
	}
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			byName[n] = domain.AchievementStatus{UserID: userID, Name: n}
		}
	}
	return nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, user domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Username, user.Username) {
			return nil, domain.ErrUserExists
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC()
	u := user
	db.users = append(db.users, &u)
	cp := u
	return &cp, nil
}

// List returns every user ordered by creation time.
func (db *DB) List(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a user and cascades to everything they own.
func (db *DB) Delete(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	idx := -1
	for i, u := range db.users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	db.users = append(db.users[:idx], db.users[idx+1:]...)

	db.records = filter(db.records, func(r domain.SessionRecord) bool { return r.UserID != id })
	db.logins = filter(db.logins, func(l domain.LoginEvent) bool { return l.UserID != id })
	db.posts = filter(db.posts, func(p domain.CommunityPost) bool { return p.UserID != id })
	delete(db.achievements, id)
	for token, s := range db.authSessions {
		if s.UserID == id {
			delete(db.authSessions, token)
		}
	}
	return nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// --- AuthSessionRepository ---

// SessionRepo implements login session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.authSessions[token] = &domain.AuthSession{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.AuthSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.authSessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.authSessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.authSessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.authSessions, k)
		}
	}
	return nil
}
