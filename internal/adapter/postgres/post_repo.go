package postgres

import (
	"context"
	"database/sql"
	"errors"

	"stressless/internal/domain"
)

const postColumns = "id, user_id, content, created_at, comments"

func (d *DB) queryPosts(ctx context.Context, query string, args ...any) ([]domain.CommunityPost, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.CommunityPost
	for rows.Next() {
		var p domain.CommunityPost
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.CreatedAt, &p.Comments); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SavePost inserts post.
func (d *DB) SavePost(ctx context.Context, post domain.CommunityPost) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO community_posts ("+postColumns+") VALUES ($1, $2, $3, $4, $5)",
		post.ID, post.UserID, post.Content, post.CreatedAt.UTC(), post.Comments,
	)
	return err
}

// ListPosts returns every post, newest first.
func (d *DB) ListPosts(ctx context.Context) ([]domain.CommunityPost, error) {
	return d.queryPosts(ctx, "SELECT "+postColumns+" FROM community_posts ORDER BY created_at DESC")
}

// GetPost retrieves a post by ID.
func (d *DB) GetPost(ctx context.Context, id string) (*domain.CommunityPost, error) {
	var p domain.CommunityPost
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM community_posts WHERE id = $1", id,
	).Scan(&p.ID, &p.UserID, &p.Content, &p.CreatedAt, &p.Comments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AppendComment appends text to the post's comments.
func (d *DB) AppendComment(ctx context.Context, id, text string) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE community_posts SET comments = comments || $2 WHERE id = $1", id, text,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeletePost removes the post with id.
func (d *DB) DeletePost(ctx context.Context, id string) error {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM community_posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
