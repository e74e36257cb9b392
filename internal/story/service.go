// Package story はストーリーの作成・閲覧・更新・削除のドメインロジックを提供する。
//
// 識別子指定の操作（閲覧・編集・更新・削除）は「取得→所有者比較→実行」の
// 順序で処理される。所有者比較は識別子の文字列一致で行い、非所有者による
// 編集・更新・削除はErrNotOwnerで拒否される（ハンドラー側で一覧への
// リダイレクトに変換されるソフトデナイ）。
package story

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/storypad/internal/model"
	"github.com/hitoshi/storypad/internal/repository"
)

// maxTitleLength はタイトルの最大文字数。
const maxTitleLength = 200

// ErrNotFound は指定IDのストーリーが存在しないことを表す。
var ErrNotFound = errors.New("story not found")

// ErrNotOwner はリクエスターがストーリーの所有者でないことを表す。
var ErrNotOwner = errors.New("requester is not the story owner")

// CreateInput はストーリー作成の入力。境界で検証されてからリポジトリに渡される。
type CreateInput struct {
	Title  string
	Body   string
	Status string // 空の場合は"public"
}

// UpdateInput はストーリー更新の入力。
type UpdateInput struct {
	Title  string
	Body   string
	Status string
}

// ServiceConfig はストーリーサービスの動作モード設定。
type ServiceConfig struct {
	// LegacyVisibility がtrueの場合、単一ストーリーの閲覧に公開状態・所有者の
	// フィルタを適用しない（旧実装互換）。falseの場合、非所有者による
	// privateストーリーの閲覧はErrNotFoundになる。
	LegacyVisibility bool

	// LegacyDelete がtrueの場合、削除前の所有者チェックを行わない（旧実装互換）。
	// falseの場合、更新と同じ「取得→所有者比較→実行」の手順を適用する。
	LegacyDelete bool
}

// Service はストーリーに関するビジネスロジックを提供する。
type Service struct {
	repo   repository.StoryRepository
	config ServiceConfig
}

// NewService はServiceを生成する。
func NewService(repo repository.StoryRepository, config ServiceConfig) *Service {
	return &Service{repo: repo, config: config}
}

// Create は認証済みリクエスターを所有者とする新規ストーリーを作成する。
// statusが未指定の場合はpublicになる。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Story, error) {
	status, verr := validateFields(input.Title, input.Body, input.Status)
	if verr != nil {
		return nil, verr
	}

	now := time.Now()
	story := &model.Story{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	return story, nil
}

// GetForViewer は閲覧用に単一ストーリーを所有者情報付きで取得する。
// 存在しない場合はErrNotFoundを返す。
// 修正モード（デフォルト）では、非所有者によるprivateストーリーの閲覧も
// ErrNotFoundとして扱う。LegacyVisibilityが有効な場合は旧実装どおり
// 認証済みユーザーなら誰でも任意のストーリーを閲覧できる。
func (s *Service) GetForViewer(ctx context.Context, viewerID, id string) (*model.StoryWithAuthor, error) {
	story, err := s.repo.FindByIDWithAuthor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story: %w", err)
	}
	if story == nil {
		return nil, ErrNotFound
	}

	if !s.config.LegacyVisibility {
		if story.Status == model.StoryStatusPrivate && story.UserID != viewerID {
			return nil, ErrNotFound
		}
	}

	return story, nil
}

// GetForEdit は編集フォーム表示用にストーリーを取得する。
// 存在しない場合はErrNotFound、リクエスターが所有者でない場合はErrNotOwnerを返す。
func (s *Service) GetForEdit(ctx context.Context, requesterID, id string) (*model.Story, error) {
	story, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story: %w", err)
	}
	if story == nil {
		return nil, ErrNotFound
	}
	if story.UserID != requesterID {
		return nil, ErrNotOwner
	}

	return story, nil
}

// Update はストーリーを更新する。
// 取得→所有者比較→実行の順で処理し、非所有者の場合は何も変更せず
// ErrNotOwnerを返す。id、user_id、created_atは変更されない。
func (s *Service) Update(ctx context.Context, requesterID, id string, input UpdateInput) (*model.Story, error) {
	story, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story: %w", err)
	}
	if story == nil {
		return nil, ErrNotFound
	}
	if story.UserID != requesterID {
		return nil, ErrNotOwner
	}

	status, verr := validateFields(input.Title, input.Body, input.Status)
	if verr != nil {
		return nil, verr
	}

	story.Title = strings.TrimSpace(input.Title)
	story.Body = input.Body
	story.Status = status
	story.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to update story: %w", err)
	}

	return story, nil
}

// Delete はストーリーを削除する。
// 修正モード（デフォルト）では更新と同じ取得→所有者比較→実行の手順を適用し、
// 非所有者の場合はErrNotOwnerを返す。LegacyDeleteが有効な場合は旧実装どおり
// 所有者チェックなしで無条件に削除する。
func (s *Service) Delete(ctx context.Context, requesterID, id string) error {
	if !s.config.LegacyDelete {
		story, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch story: %w", err)
		}
		if story == nil {
			return ErrNotFound
		}
		if story.UserID != requesterID {
			return ErrNotOwner
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	return nil
}

// ListPublic はstatus='public'の全ストーリーを新しい順に所有者情報付きで返す。
func (s *Service) ListPublic(ctx context.Context) ([]model.StoryWithAuthor, error) {
	stories, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	return stories, nil
}

// ListByOwner は指定ユーザーの全ストーリーをステータスを問わず返す。
// 所有者自身のダッシュボード用。
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]model.Story, error) {
	stories, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories by owner: %w", err)
	}
	return stories, nil
}

// ListPublicByOwner は指定ユーザーの公開ストーリーを所有者情報付きで返す。
// 他ユーザーの公開ストーリー一覧表示用。
func (s *Service) ListPublicByOwner(ctx context.Context, ownerID string) ([]model.StoryWithAuthor, error) {
	stories, err := s.repo.ListPublicByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories by owner: %w", err)
	}
	return stories, nil
}

// validateFields はtitle、body、statusを検証し、正規化済みのステータスを返す。
// statusが空の場合はpublicにデフォルトする。
func validateFields(title, body, status string) (model.StoryStatus, *model.ValidationError) {
	verr := model.NewValidationError()

	if strings.TrimSpace(title) == "" {
		verr.Add("title", "タイトルは必須です")
	} else if len([]rune(title)) > maxTitleLength {
		verr.Add("title", fmt.Sprintf("タイトルは%d文字以内で入力してください", maxTitleLength))
	}

	if strings.TrimSpace(body) == "" {
		verr.Add("body", "本文は必須です")
	}

	normalized := model.StoryStatus(status)
	if status == "" {
		normalized = model.StoryStatusPublic
	} else if !normalized.IsValid() {
		verr.Add("status", "公開状態はpublicまたはprivateを指定してください")
	}

	if verr.HasErrors() {
		return "", verr
	}
	return normalized, nil
}
