package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storypad/internal/model"
)

// PostgresStoryRepo はPostgreSQLを使用したストーリーリポジトリ。
type PostgresStoryRepo struct {
	db *sql.DB
}

// NewPostgresStoryRepo はPostgresStoryRepoを生成する。
func NewPostgresStoryRepo(db *sql.DB) *PostgresStoryRepo {
	return &PostgresStoryRepo{db: db}
}

// Create はストーリーを作成する。
func (r *PostgresStoryRepo) Create(ctx context.Context, story *model.Story) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stories (id, user_id, title, body, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		story.ID, story.UserID, story.Title, story.Body, story.Status,
		story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
func (r *PostgresStoryRepo) FindByID(ctx context.Context, id string) (*model.Story, error) {
	story := &model.Story{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, body, status, created_at, updated_at
		 FROM stories WHERE id = $1`,
		id,
	).Scan(&story.ID, &story.UserID, &story.Title, &story.Body, &story.Status,
		&story.CreatedAt, &story.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find story by ID: %w", err)
	}

	return story, nil
}

// FindByIDWithAuthor は指定IDのストーリーを所有者情報とJOINして取得する。
// 見つからない場合はnilを返す。
func (r *PostgresStoryRepo) FindByIDWithAuthor(ctx context.Context, id string) (*model.StoryWithAuthor, error) {
	story := &model.StoryWithAuthor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.title, s.body, s.status, s.created_at, s.updated_at,
		        u.name, u.first_name, u.avatar_url
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = $1`,
		id,
	).Scan(&story.ID, &story.UserID, &story.Title, &story.Body, &story.Status,
		&story.CreatedAt, &story.UpdatedAt,
		&story.AuthorName, &story.AuthorFirstName, &story.AuthorAvatarURL)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find story with author: %w", err)
	}

	return story, nil
}

// ListPublic はstatus='public'の全ストーリーを所有者情報とJOINし、created_at降順で返す。
func (r *PostgresStoryRepo) ListPublic(ctx context.Context) ([]model.StoryWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.user_id, s.title, s.body, s.status, s.created_at, s.updated_at,
		        u.name, u.first_name, u.avatar_url
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.status = 'public'
		 ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	defer rows.Close()

	return scanStoriesWithAuthor(rows)
}

// ListByOwner は指定ユーザーの全ストーリーをステータスを問わず返す。
func (r *PostgresStoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, body, status, created_at, updated_at
		 FROM stories WHERE user_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories by owner: %w", err)
	}
	defer rows.Close()

	var stories []model.Story
	for rows.Next() {
		var s model.Story
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Body, &s.Status,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return stories, nil
}

// ListPublicByOwner は指定ユーザーのstatus='public'のストーリーを
// 所有者情報とJOINしてcreated_at降順で返す。
func (r *PostgresStoryRepo) ListPublicByOwner(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.user_id, s.title, s.body, s.status, s.created_at, s.updated_at,
		        u.name, u.first_name, u.avatar_url
		 FROM stories s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.user_id = $1 AND s.status = 'public'
		 ORDER BY s.created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories by owner: %w", err)
	}
	defer rows.Close()

	return scanStoriesWithAuthor(rows)
}

// Update はストーリーのtitle、body、status、updated_atを上書き更新する。
// id、user_id、created_atは変更しない。
func (r *PostgresStoryRepo) Update(ctx context.Context, story *model.Story) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stories SET title = $2, body = $3, status = $4, updated_at = $5
		 WHERE id = $1`,
		story.ID, story.Title, story.Body, story.Status, story.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのストーリーを無条件で削除する。
func (r *PostgresStoryRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM stories WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}

// scanStoriesWithAuthor は所有者JOIN付きクエリの結果行をスキャンする。
func scanStoriesWithAuthor(rows *sql.Rows) ([]model.StoryWithAuthor, error) {
	var stories []model.StoryWithAuthor
	for rows.Next() {
		var s model.StoryWithAuthor
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Body, &s.Status,
			&s.CreatedAt, &s.UpdatedAt,
			&s.AuthorName, &s.AuthorFirstName, &s.AuthorAvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan story with author: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}

	return stories, nil
}

// compile-time interface check
var _ StoryRepository = (*PostgresStoryRepo)(nil)
