package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stressless/internal/domain"
)

// commentTimeLayout is the timestamp layout of appended comments.
const commentTimeLayout = "2006-01-02 15:04:05"

// ShareResult is returned by CommunityService.Share.
type ShareResult struct {
	Post   domain.CommunityPost `json:"post"`
	Earned []EarnedAchievement  `json:"earned"`
}

// CommunityService manages the anonymous community board.
type CommunityService struct {
	posts  domain.PostRepository
	engine *AchievementService
	opts   options
}

// NewCommunityService creates a CommunityService.
func NewCommunityService(posts domain.PostRepository, engine *AchievementService, opts ...Option) *CommunityService {
	return &CommunityService{posts: posts, engine: engine, opts: newOptions(opts)}
}

// Share publishes content for userID and evaluates achievements. An
// *EvaluationError may accompany a non-nil result; the post is kept.
func (s *CommunityService) Share(ctx context.Context, userID, content string) (*ShareResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyPost
	}

	unlock, err := s.opts.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	post := domain.CommunityPost{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.opts.now(),
	}
	if err := s.posts.SavePost(ctx, post); err != nil {
		return nil, domain.Persistence("save post", err)
	}
	s.opts.logger.Info("post shared", zap.String("user_id", userID), zap.String("post_id", post.ID))

	res := &ShareResult{Post: post}
	res.Earned, err = s.engine.evaluateLocked(ctx, userID, TriggerPost)
	return res, err
}

// List returns every post, newest first.
func (s *CommunityService) List(ctx context.Context) ([]domain.CommunityPost, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, domain.Persistence("list posts", err)
	}
	return posts, nil
}

// Comment appends an anonymous, timestamped comment to a post.
func (s *CommunityService) Comment(ctx context.Context, postID, text string) (*domain.CommunityPost, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyPost
	}
	line := fmt.Sprintf("\nAnonymous (%s): %s", s.opts.now().Format(commentTimeLayout), text)
	if err := s.posts.AppendComment(ctx, postID, line); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.Persistence("append comment", err)
	}
	return s.posts.GetPost(ctx, postID)
}

// Delete removes a post. Only administrators may call it.
func (s *CommunityService) Delete(ctx context.Context, actor *domain.User, postID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.Persistence("delete post", err)
	}
	return nil
}
