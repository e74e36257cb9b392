package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/storypad/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, first_name, avatar_url, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.FirstName, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ユーザーを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, first_name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Name, user.FirstName, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	// identityを作成
	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.UserID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindAvatarCache は指定ユーザーのキャッシュ済みアバター画像を取得する。
// 未キャッシュの場合はnilデータと空MIMEを返す。
func (r *PostgresUserRepo) FindAvatarCache(ctx context.Context, id string) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT avatar_data, avatar_mime FROM users WHERE id = $1`,
		id,
	).Scan(&data, &mime)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find avatar cache: %w", err)
	}

	if !mime.Valid {
		return nil, "", nil
	}
	return data, mime.String, nil
}

// UpdateAvatarCache は指定ユーザーのアバター画像キャッシュを更新する。
func (r *PostgresUserRepo) UpdateAvatarCache(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_data = $2, avatar_mime = $3, avatar_fetched_at = $4 WHERE id = $1`,
		id, data, mimeType, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar cache: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
