package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stressless/internal/adapter/memory"
	"stressless/internal/app"
	"stressless/internal/domain"
)

func TestCommunity_ShareEarnsFirstPost(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	p := &recordingPresenter{}
	engine := app.NewAchievementService(db, db, app.WithPresenter(p))
	svc := app.NewCommunityService(db, engine)

	res, err := svc.Share(ctx, "u1", "  breathing really helps  ")
	require.NoError(t, err)
	require.Equal(t, "breathing really helps", res.Post.Content)
	require.Len(t, res.Earned, 1)
	require.Equal(t, domain.AchievementFirstPost, res.Earned[0].Name)

	res, err = svc.Share(ctx, "u1", "second")
	require.NoError(t, err)
	require.Empty(t, res.Earned)
	require.Len(t, p.ofKind("achievement"), 1)

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

func TestCommunity_EmptyContent(t *testing.T) {
	db := memory.New()
	svc := app.NewCommunityService(db, app.NewAchievementService(db, db))
	_, err := svc.Share(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, domain.ErrEmptyPost)
	_, err = svc.Comment(context.Background(), "p", "")
	require.ErrorIs(t, err, domain.ErrEmptyPost)
}

func TestCommunity_CommentFormat(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	opts := []app.Option{app.WithClock(func() time.Time { return at })}
	svc := app.NewCommunityService(db, app.NewAchievementService(db, db, opts...), opts...)

	res, err := svc.Share(ctx, "u1", "hello")
	require.NoError(t, err)

	post, err := svc.Comment(ctx, res.Post.ID, "welcome!")
	require.NoError(t, err)
	require.Equal(t, "\nAnonymous (2024-02-03 04:05:06): welcome!", post.Comments)

	post, err = svc.Comment(ctx, res.Post.ID, "same here")
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(post.Comments, "\nAnonymous ("))

	_, err = svc.Comment(ctx, "missing", "hi")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommunity_SaveFailure(t *testing.T) {
	db := memory.New()
	boom := errors.New("insert failed")
	posts := &failingPosts{PostRepository: db, err: boom}
	svc := app.NewCommunityService(posts, app.NewAchievementService(db, db))

	_, err := svc.Share(context.Background(), "u1", "hello")
	require.True(t, domain.IsPersistence(err))
	require.ErrorIs(t, err, boom)
}

func TestCommunity_DeleteRequiresAdmin(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	svc := app.NewCommunityService(db, app.NewAchievementService(db, db))
	res, err := svc.Share(ctx, "u1", "hello")
	require.NoError(t, err)

	user := &domain.User{ID: "u1", Role: domain.RoleStandard}
	admin := &domain.User{ID: "a", Role: domain.RoleAdmin}
	require.ErrorIs(t, svc.Delete(ctx, user, res.Post.ID), app.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, res.Post.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, res.Post.ID), domain.ErrNotFound)
}

type failingPosts struct {
	domain.PostRepository
	err error
}

func (f *failingPosts) SavePost(context.Context, domain.CommunityPost) error {
	return f.err
}
