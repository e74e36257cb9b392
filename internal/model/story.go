// Package model はドメインモデルを定義する。
package model

import "time"

// Story はユーザーが投稿するストーリーを表す。
// 所有者（UserID）は作成時に認証済みリクエスターから設定され、以降変更されない。
type Story struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Status    StoryStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoryStatus はストーリーの公開状態を表す。
type StoryStatus string

const (
	// StoryStatusPublic は全認証ユーザーに公開されるストーリー。
	StoryStatusPublic StoryStatus = "public"
	// StoryStatusPrivate は所有者のみが閲覧できるストーリー。
	StoryStatusPrivate StoryStatus = "private"
)

// IsValid はStoryStatusが定義済みの値かどうかを判定する。
func (s StoryStatus) IsValid() bool {
	return s == StoryStatusPublic || s == StoryStatusPrivate
}

// StoryWithAuthor はストーリーと所有者のユーザー情報を結合したモデル。
// usersテーブルとJOINして取得される（populate相当）。
type StoryWithAuthor struct {
	Story
	AuthorName      string
	AuthorFirstName string
	AuthorAvatarURL string
}
