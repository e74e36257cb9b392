package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storypad/internal/view"
)

// feedDescriptionLength はRSSのdescriptionに載せる抜粋の最大文字数。
const feedDescriptionLength = 300

// FeedHandlerConfig はRSSフィードハンドラーの設定。
type FeedHandlerConfig struct {
	BaseURL string // ストーリーへの絶対リンクの生成に使う
}

// FeedHandler は公開ストーリーのRSS 2.0フィードを配信するHTTPハンドラー。
type FeedHandler struct {
	service StoryServiceInterface
	config  FeedHandlerConfig
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service StoryServiceInterface, config FeedHandlerConfig) *FeedHandler {
	return &FeedHandler{
		service: service,
		config:  config,
	}
}

// rssFeed はRSS 2.0のルート要素。
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// Serve は公開ストーリーをRSS 2.0形式で配信する。
// GET /stories/feed
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	stories, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("failed to list public stories for feed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "Storypad",
			Link:        h.config.BaseURL + "/stories",
			Description: "公開ストーリーの新着フィード",
		},
	}

	for _, s := range stories {
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       s.Title,
			Link:        h.config.BaseURL + "/stories/" + s.ID,
			Description: view.Truncate(view.StripTags(s.Body), feedDescriptionLength),
			Author:      s.AuthorName,
			GUID:        h.config.BaseURL + "/stories/" + s.ID,
			PubDate:     s.CreatedAt.Format(http.TimeFormat),
		})
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		slog.Error("failed to encode feed", slog.String("error", err.Error()))
	}
}
