// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/storypad/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// FindAvatarCache は指定ユーザーのキャッシュ済みアバター画像を取得する。
	// 未キャッシュの場合はnilデータと空MIMEを返す。
	FindAvatarCache(ctx context.Context, id string) (data []byte, mimeType string, err error)

	// UpdateAvatarCache は指定ユーザーのアバター画像キャッシュを更新する。
	UpdateAvatarCache(ctx context.Context, id string, data []byte, mimeType string, fetchedAt time.Time) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// StoryRepository はストーリーデータの永続化インターフェース。
// 所有者チェックは行わない。呼び出し側（storyサービス）が検証済みであることを前提とする。
type StoryRepository interface {
	// Create はストーリーを作成する。
	Create(ctx context.Context, story *model.Story) error

	// FindByID は指定IDのストーリーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Story, error)

	// FindByIDWithAuthor は指定IDのストーリーを所有者情報とJOINして取得する。
	// 見つからない場合はnilを返す。
	FindByIDWithAuthor(ctx context.Context, id string) (*model.StoryWithAuthor, error)

	// ListPublic はstatus='public'の全ストーリーを所有者情報とJOINし、
	// created_at降順で返す。
	ListPublic(ctx context.Context) ([]model.StoryWithAuthor, error)

	// ListByOwner は指定ユーザーの全ストーリーをステータスを問わず返す。
	// 所有者自身のダッシュボード用のため、公開状態のフィルタは適用しない。
	ListByOwner(ctx context.Context, ownerID string) ([]model.Story, error)

	// ListPublicByOwner は指定ユーザーのstatus='public'のストーリーを
	// 所有者情報とJOINしてcreated_at降順で返す。
	ListPublicByOwner(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error)

	// Update はストーリーのtitle、body、status、updated_atを上書き更新する。
	Update(ctx context.Context, story *model.Story) error

	// DeleteByID は指定IDのストーリーを無条件で削除する。
	DeleteByID(ctx context.Context, id string) error
}
