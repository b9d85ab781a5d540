package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bivochat/stories/internal/middleware"
	"github.com/bivochat/stories/internal/model"
	"github.com/bivochat/stories/internal/repository"
	"github.com/bivochat/stories/internal/story"
)

// StoryServiceInterface はストーリーハンドラーが必要とするサービスインターフェース。
type StoryServiceInterface interface {
	// Create はストーリーを作成する。地域はオーナーの現在地域で固定される。
	Create(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error)
	// ListActive は呼び出しユーザーの地域の有効なストーリーを新しい順に返す。
	ListActive(ctx context.Context, forUserID string) ([]story.FeedStory, error)
	// ListForUser は指定ユーザー自身の有効なストーリーを返す。
	ListForUser(ctx context.Context, ownerID string) ([]*model.Story, error)
	// Get は指定IDのストーリーを返す。
	Get(ctx context.Context, storyID string) (*model.Story, error)
	// View は閲覧を冪等に記録する。
	View(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error)
	// Like はリアクションを記録する。
	Like(ctx context.Context, storyID, userID, reactionType string) error
	// Unlike はリアクションを取り消す。
	Unlike(ctx context.Context, storyID, userID string) error
	// GetLikes はリアクション一覧を返す。
	GetLikes(ctx context.Context, storyID, userID string) (*story.LikesResult, error)
	// AddComment はコメントを追記する。
	AddComment(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error)
	// GetComments はコメント一覧を時系列順で返す。
	GetComments(ctx context.Context, storyID string) ([]repository.StoryCommentWithUser, error)
}

// StoryHandler はストーリー管理のHTTPハンドラー。
type StoryHandler struct {
	service StoryServiceInterface
}

// NewStoryHandler はStoryHandlerを生成する。
func NewStoryHandler(service StoryServiceInterface) *StoryHandler {
	return &StoryHandler{
		service: service,
	}
}

// createStoryRequest はストーリー作成リクエストのボディ。
type createStoryRequest struct {
	Content         string `json:"content"`
	ImageURL        string `json:"image_url"`
	VideoURL        string `json:"video_url"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
}

// likeStoryRequest はリアクションリクエストのボディ。
type likeStoryRequest struct {
	ReactionType string `json:"reaction_type"`
}

// addCommentRequest はコメント追記リクエストのボディ。
type addCommentRequest struct {
	Content string `json:"content"`
}

// storyResponse はストーリー情報のAPIレスポンス。
type storyResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Location        string    `json:"location"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url"`
	VideoURL        string    `json:"video_url"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	ViewCount       int       `json:"view_count"`
}

// feedStoryResponse はフィード表示用のストーリーAPIレスポンス。
type feedStoryResponse struct {
	storyResponse
	UserName      string `json:"user_name"`
	UserAvatarURL string `json:"user_avatar_url"`
	UserVerified  bool   `json:"user_verified"`
	LikeCount     int    `json:"like_count"`
	CommentCount  int    `json:"comment_count"`
	HasViewed     bool   `json:"has_viewed"`
	HasLiked      bool   `json:"has_liked"`
}

// viewResponse は閲覧記録のAPIレスポンス。
type viewResponse struct {
	Recorded  bool `json:"recorded"`
	ViewCount int  `json:"view_count"`
}

// likeResponse はリアクション1件のAPIレスポンス。
type likeResponse struct {
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserAvatarURL string    `json:"user_avatar_url"`
	ReactionType  string    `json:"reaction_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// likesListResponse はリアクション一覧のAPIレスポンス。
type likesListResponse struct {
	Likes        []likeResponse `json:"likes"`
	Count        int            `json:"count"`
	HasUserLiked bool           `json:"has_user_liked"`
}

// commentResponse はコメント1件のAPIレスポンス。
type commentResponse struct {
	ID            string    `json:"id"`
	StoryID       string    `json:"story_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserAvatarURL string    `json:"user_avatar_url"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Create はストーリー作成を処理する。
// POST /api/stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, story.CreateInput{
		Content:         req.Content,
		ImageURL:        req.ImageURL,
		VideoURL:        req.VideoURL,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toStoryResponse(created))
}

// ListFeed は呼び出しユーザーの地域の有効なストーリー一覧を返す。
// GET /api/stories
func (h *StoryHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feed, err := h.service.ListActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]feedStoryResponse, len(feed))
	for i, fs := range feed {
		results[i] = toFeedStoryResponse(fs)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"stories": results,
	})
}

// ListMine は呼び出しユーザー自身の有効なストーリー一覧を返す。
// GET /api/stories/mine
func (h *StoryHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	stories, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]storyResponse, len(stories))
	for i, s := range stories {
		results[i] = toStoryResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"stories": results,
	})
}

// Get はストーリー詳細を取得する。
// GET /api/stories/:id
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "id")

	s, err := h.service.Get(r.Context(), storyID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toStoryResponse(s))
}

// View は閲覧を記録する。同一ユーザーの再閲覧は記録されない。
// POST /api/stories/:id/view
func (h *StoryHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	storyID := chi.URLParam(r, "id")

	result, err := h.service.View(r.Context(), storyID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(viewResponse{
		Recorded:  result.Recorded,
		ViewCount: result.ViewCount,
	})
}

// Like はリアクションを記録する。再リアクションは種別の上書きとなる。
// POST /api/stories/:id/like
func (h *StoryHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	storyID := chi.URLParam(r, "id")

	var req likeStoryRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInvalidRequestBody(w)
			return
		}
	}

	if err := h.service.Like(r.Context(), storyID, userID, req.ReactionType); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unlike はリアクションを取り消す。存在しない場合も正常終了する。
// DELETE /api/stories/:id/like
func (h *StoryHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	storyID := chi.URLParam(r, "id")

	if err := h.service.Unlike(r.Context(), storyID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLikes はリアクション一覧を返す。
// GET /api/stories/:id/likes
func (h *StoryHandler) GetLikes(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	storyID := chi.URLParam(r, "id")

	result, err := h.service.GetLikes(r.Context(), storyID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	likes := make([]likeResponse, len(result.Likes))
	for i, l := range result.Likes {
		likes[i] = likeResponse{
			UserID:        l.UserID,
			UserName:      l.UserName,
			UserAvatarURL: l.UserAvatarURL,
			ReactionType:  string(l.ReactionType),
			CreatedAt:     l.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(likesListResponse{
		Likes:        likes,
		Count:        result.Count,
		HasUserLiked: result.HasUserLiked,
	})
}

// AddComment はコメントを追記する。
// POST /api/stories/:id/comments
func (h *StoryHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	storyID := chi.URLParam(r, "id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	comment, err := h.service.AddComment(r.Context(), storyID, userID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(commentResponse{
		ID:        comment.ID,
		StoryID:   comment.StoryID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}

// GetComments はコメント一覧を時系列順（古い順）で返す。
// GET /api/stories/:id/comments
func (h *StoryHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "id")

	comments, err := h.service.GetComments(r.Context(), storyID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]commentResponse, len(comments))
	for i, c := range comments {
		results[i] = commentResponse{
			ID:            c.ID,
			StoryID:       c.StoryID,
			UserID:        c.UserID,
			UserName:      c.UserName,
			UserAvatarURL: c.UserAvatarURL,
			Content:       c.Content,
			CreatedAt:     c.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"comments": results,
	})
}

// SetupStoryRoutes はストーリー関連のルーティングを設定したchi.Routerを返す。
// createMiddleware が nil でない場合、POST /api/stories に作成専用レート制限を適用する。
func SetupStoryRoutes(service StoryServiceInterface, createMiddleware func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	h := NewStoryHandler(service)

	r.Route("/api/stories", func(r chi.Router) {
		// POST /api/stories - ストーリー作成（作成専用レート制限を適用）
		if createMiddleware != nil {
			r.With(createMiddleware).Post("/", h.Create)
		} else {
			r.Post("/", h.Create)
		}

		r.Get("/", h.ListFeed)
		r.Get("/mine", h.ListMine)

		// /api/stories/:id 以下のルーティング
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/view", h.View)
			r.Post("/like", h.Like)
			r.Delete("/like", h.Unlike)
			r.Get("/likes", h.GetLikes)
			r.Post("/comments", h.AddComment)
			r.Get("/comments", h.GetComments)
		})
	})

	return r
}

// --- ヘルパー関数 ---

// toStoryResponse はmodel.StoryからAPIレスポンスに変換する。
func toStoryResponse(s *model.Story) storyResponse {
	return storyResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		Location:        s.Location,
		Content:         s.Content,
		ImageURL:        s.ImageURL,
		VideoURL:        s.VideoURL,
		BackgroundColor: s.BackgroundColor,
		TextColor:       s.TextColor,
		CreatedAt:       s.CreatedAt,
		ExpiresAt:       s.ExpiresAt,
		ViewCount:       s.ViewCount,
	}
}

// toFeedStoryResponse はstory.FeedStoryからAPIレスポンスに変換する。
func toFeedStoryResponse(fs story.FeedStory) feedStoryResponse {
	return feedStoryResponse{
		storyResponse: storyResponse{
			ID:              fs.ID,
			UserID:          fs.UserID,
			Location:        fs.Location,
			Content:         fs.Content,
			ImageURL:        fs.ImageURL,
			VideoURL:        fs.VideoURL,
			BackgroundColor: fs.BackgroundColor,
			TextColor:       fs.TextColor,
			CreatedAt:       fs.CreatedAt,
			ExpiresAt:       fs.ExpiresAt,
			ViewCount:       fs.ViewCount,
		},
		UserName:      fs.UserName,
		UserAvatarURL: fs.UserAvatarURL,
		UserVerified:  fs.UserVerified,
		LikeCount:     fs.LikeCount,
		CommentCount:  fs.CommentCount,
		HasViewed:     fs.HasViewed,
		HasLiked:      fs.HasLiked,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorized は認証エラーレスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequestBody はリクエストボディ解析エラーレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeStoryNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmptyStory, model.ErrCodeEmptyComment,
		model.ErrCodeInvalidReaction, model.ErrCodeInvalidMediaURL,
		model.ErrCodeInvalidLocation:
		return http.StatusBadRequest
	case model.ErrCodeMediaURLBlocked:
		return http.StatusForbidden
	case model.ErrCodeStoryExpired:
		return http.StatusGone
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeVerifyFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
