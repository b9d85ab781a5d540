package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bivochat/stories/internal/middleware"
	"github.com/bivochat/stories/internal/model"
	"github.com/bivochat/stories/internal/repository"
	"github.com/bivochat/stories/internal/story"
)

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- モック定義 ---

// mockStoryService はStoryServiceInterfaceのモック実装。
type mockStoryService struct {
	createFn      func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error)
	listActiveFn  func(ctx context.Context, forUserID string) ([]story.FeedStory, error)
	listForUserFn func(ctx context.Context, ownerID string) ([]*model.Story, error)
	getFn         func(ctx context.Context, storyID string) (*model.Story, error)
	viewFn        func(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error)
	likeFn        func(ctx context.Context, storyID, userID, reactionType string) error
	unlikeFn      func(ctx context.Context, storyID, userID string) error
	getLikesFn    func(ctx context.Context, storyID, userID string) (*story.LikesResult, error)
	addCommentFn  func(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error)
	getCommentsFn func(ctx context.Context, storyID string) ([]repository.StoryCommentWithUser, error)
}

func (m *mockStoryService) Create(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, input)
	}
	return &model.Story{ID: "story-1", UserID: ownerID}, nil
}

func (m *mockStoryService) ListActive(ctx context.Context, forUserID string) ([]story.FeedStory, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx, forUserID)
	}
	return []story.FeedStory{}, nil
}

func (m *mockStoryService) ListForUser(ctx context.Context, ownerID string) ([]*model.Story, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, ownerID)
	}
	return []*model.Story{}, nil
}

func (m *mockStoryService) Get(ctx context.Context, storyID string) (*model.Story, error) {
	if m.getFn != nil {
		return m.getFn(ctx, storyID)
	}
	return &model.Story{ID: storyID}, nil
}

func (m *mockStoryService) View(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error) {
	if m.viewFn != nil {
		return m.viewFn(ctx, storyID, viewerID)
	}
	return &story.ViewResult{Recorded: true, ViewCount: 1}, nil
}

func (m *mockStoryService) Like(ctx context.Context, storyID, userID, reactionType string) error {
	if m.likeFn != nil {
		return m.likeFn(ctx, storyID, userID, reactionType)
	}
	return nil
}

func (m *mockStoryService) Unlike(ctx context.Context, storyID, userID string) error {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, storyID, userID)
	}
	return nil
}

func (m *mockStoryService) GetLikes(ctx context.Context, storyID, userID string) (*story.LikesResult, error) {
	if m.getLikesFn != nil {
		return m.getLikesFn(ctx, storyID, userID)
	}
	return &story.LikesResult{}, nil
}

func (m *mockStoryService) AddComment(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, storyID, userID, content)
	}
	return &model.StoryComment{ID: "comment-1", StoryID: storyID, UserID: userID, Content: content}, nil
}

func (m *mockStoryService) GetComments(ctx context.Context, storyID string) ([]repository.StoryCommentWithUser, error) {
	if m.getCommentsFn != nil {
		return m.getCommentsFn(ctx, storyID)
	}
	return []repository.StoryCommentWithUser{}, nil
}

// --- POST /api/stories テスト ---

func TestStoryHandler_Create_Success(t *testing.T) {
	now := time.Now()
	svc := &mockStoryService{
		createFn: func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
			if ownerID != "user-123" {
				t.Errorf("ownerID = %q, want %q", ownerID, "user-123")
			}
			if input.Content != "今日の空" {
				t.Errorf("content = %q, want %q", input.Content, "今日の空")
			}
			return &model.Story{
				ID:        "story-1",
				UserID:    ownerID,
				Location:  "Tokyo",
				Content:   input.Content,
				CreatedAt: now,
				ExpiresAt: now.Add(24 * time.Hour),
			}, nil
		},
	}

	h := NewStoryHandler(svc)

	body := `{"content": "今日の空"}`
	req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got storyResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "story-1" {
		t.Errorf("id = %q, want %q", got.ID, "story-1")
	}
	if got.Location != "Tokyo" {
		t.Errorf("location = %q, want %q", got.Location, "Tokyo")
	}
}

func TestStoryHandler_Create_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewStoryHandler(&mockStoryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(`{}`))
	// ユーザーIDを注入しない
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestStoryHandler_Create_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewStoryHandler(&mockStoryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(`{invalid`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestStoryHandler_Create_EmptyStory_ReturnsBadRequest(t *testing.T) {
	svc := &mockStoryService{
		createFn: func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
			return nil, model.NewEmptyStoryError()
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(`{"content": ""}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeEmptyStory {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmptyStory)
	}
}

func TestStoryHandler_Create_MediaURLBlocked_ReturnsForbidden(t *testing.T) {
	svc := &mockStoryService{
		createFn: func(ctx context.Context, ownerID string, input story.CreateInput) (*model.Story, error) {
			return nil, model.NewMediaURLBlockedError()
		},
	}

	h := NewStoryHandler(svc)

	body := `{"image_url": "http://169.254.169.254/latest/meta-data"}`
	req := httptest.NewRequest(http.MethodPost, "/api/stories", strings.NewReader(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// --- GET /api/stories テスト ---

func TestStoryHandler_ListFeed_Success(t *testing.T) {
	svc := &mockStoryService{
		listActiveFn: func(ctx context.Context, forUserID string) ([]story.FeedStory, error) {
			if forUserID != "user-123" {
				t.Errorf("forUserID = %q, want %q", forUserID, "user-123")
			}
			return []story.FeedStory{
				{ID: "story-2", UserName: "花子", LikeCount: 3, HasViewed: true},
				{ID: "story-1", UserName: "太郎", ViewCount: 5},
			}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListFeed(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Stories []feedStoryResponse `json:"stories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Stories) != 2 {
		t.Fatalf("stories count = %d, want 2", len(body.Stories))
	}
	if body.Stories[0].ID != "story-2" {
		t.Errorf("first story id = %q, want %q", body.Stories[0].ID, "story-2")
	}
	if body.Stories[0].UserName != "花子" {
		t.Errorf("user_name = %q, want %q", body.Stories[0].UserName, "花子")
	}
	if !body.Stories[0].HasViewed {
		t.Error("expected has_viewed to be true")
	}
}

func TestStoryHandler_ListFeed_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewStoryHandler(&mockStoryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListFeed(w, req)

	var body struct {
		Stories []feedStoryResponse `json:"stories"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Stories == nil {
		t.Error("stories should be an empty array, not null")
	}
	if len(body.Stories) != 0 {
		t.Errorf("stories count = %d, want 0", len(body.Stories))
	}
}

// --- GET /api/stories/:id テスト ---

func TestStoryHandler_Get_NotFound(t *testing.T) {
	svc := &mockStoryService{
		getFn: func(ctx context.Context, storyID string) (*model.Story, error) {
			return nil, model.NewStoryNotFoundError(storyID)
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/no-such-story", nil)
	req = withChiURLParam(req, "id", "no-such-story")
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeStoryNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeStoryNotFound)
	}
}

// --- POST /api/stories/:id/view テスト ---

func TestStoryHandler_View_Success(t *testing.T) {
	svc := &mockStoryService{
		viewFn: func(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error) {
			if storyID != "story-1" {
				t.Errorf("storyID = %q, want %q", storyID, "story-1")
			}
			if viewerID != "user-123" {
				t.Errorf("viewerID = %q, want %q", viewerID, "user-123")
			}
			return &story.ViewResult{Recorded: true, ViewCount: 4}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/view", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.View(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body viewResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Recorded {
		t.Error("expected recorded to be true")
	}
	if body.ViewCount != 4 {
		t.Errorf("view_count = %d, want 4", body.ViewCount)
	}
}

func TestStoryHandler_View_Duplicate_ReturnsRecordedFalse(t *testing.T) {
	svc := &mockStoryService{
		viewFn: func(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error) {
			return &story.ViewResult{Recorded: false, ViewCount: 4}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/view", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.View(w, req)

	var body viewResponse
	json.NewDecoder(w.Result().Body).Decode(&body)
	if body.Recorded {
		t.Error("expected recorded to be false for duplicate view")
	}
	if body.ViewCount != 4 {
		t.Errorf("view_count = %d, want 4", body.ViewCount)
	}
}

func TestStoryHandler_View_Expired_ReturnsGone(t *testing.T) {
	svc := &mockStoryService{
		viewFn: func(ctx context.Context, storyID, viewerID string) (*story.ViewResult, error) {
			return nil, model.NewStoryExpiredError(storyID)
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/view", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.View(w, req)

	if w.Result().StatusCode != http.StatusGone {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusGone)
	}
}

// --- POST/DELETE /api/stories/:id/like テスト ---

func TestStoryHandler_Like_Success(t *testing.T) {
	svc := &mockStoryService{
		likeFn: func(ctx context.Context, storyID, userID, reactionType string) error {
			if reactionType != "love" {
				t.Errorf("reactionType = %q, want %q", reactionType, "love")
			}
			return nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/like", strings.NewReader(`{"reaction_type": "love"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.Like(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

func TestStoryHandler_Like_EmptyBody_DefaultsToLike(t *testing.T) {
	var gotReaction string
	svc := &mockStoryService{
		likeFn: func(ctx context.Context, storyID, userID, reactionType string) error {
			gotReaction = reactionType
			return nil
		},
	}

	h := NewStoryHandler(svc)

	// ボディなしのリクエストはデフォルトリアクションとして扱われる
	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/like", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.Like(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if gotReaction != "" {
		t.Errorf("reactionType = %q, want empty (service applies default)", gotReaction)
	}
}

func TestStoryHandler_Like_InvalidReaction_ReturnsBadRequest(t *testing.T) {
	svc := &mockStoryService{
		likeFn: func(ctx context.Context, storyID, userID, reactionType string) error {
			return model.NewInvalidReactionError(reactionType)
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/like", strings.NewReader(`{"reaction_type": "angry"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.Like(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestStoryHandler_Unlike_Success(t *testing.T) {
	unlikeCalled := false
	svc := &mockStoryService{
		unlikeFn: func(ctx context.Context, storyID, userID string) error {
			unlikeCalled = true
			return nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/stories/story-1/like", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.Unlike(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !unlikeCalled {
		t.Error("expected Unlike to be called")
	}
}

// --- GET /api/stories/:id/likes テスト ---

func TestStoryHandler_GetLikes_Success(t *testing.T) {
	svc := &mockStoryService{
		getLikesFn: func(ctx context.Context, storyID, userID string) (*story.LikesResult, error) {
			return &story.LikesResult{
				Likes: []repository.StoryLikeWithUser{
					{
						StoryLike: model.StoryLike{UserID: "user-456", ReactionType: model.ReactionLove},
						UserName:  "花子",
					},
				},
				Count:        1,
				HasUserLiked: false,
			}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/story-1/likes", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.GetLikes(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body likesListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
	if len(body.Likes) != 1 {
		t.Fatalf("likes count = %d, want 1", len(body.Likes))
	}
	if body.Likes[0].ReactionType != "love" {
		t.Errorf("reaction_type = %q, want %q", body.Likes[0].ReactionType, "love")
	}
	if body.HasUserLiked {
		t.Error("expected has_user_liked to be false")
	}
}

// --- POST/GET /api/stories/:id/comments テスト ---

func TestStoryHandler_AddComment_Success(t *testing.T) {
	svc := &mockStoryService{
		addCommentFn: func(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error) {
			if content != "素敵ですね" {
				t.Errorf("content = %q, want %q", content, "素敵ですね")
			}
			return &model.StoryComment{
				ID:      "comment-1",
				StoryID: storyID,
				UserID:  userID,
				Content: content,
			}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/comments", strings.NewReader(`{"content": "素敵ですね"}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.AddComment(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var body commentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Content != "素敵ですね" {
		t.Errorf("content = %q, want %q", body.Content, "素敵ですね")
	}
}

func TestStoryHandler_AddComment_Empty_ReturnsBadRequest(t *testing.T) {
	svc := &mockStoryService{
		addCommentFn: func(ctx context.Context, storyID, userID, content string) (*model.StoryComment, error) {
			return nil, model.NewEmptyCommentError()
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/story-1/comments", strings.NewReader(`{"content": "   "}`))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.AddComment(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestStoryHandler_GetComments_ChronologicalOrder(t *testing.T) {
	base := time.Now()
	svc := &mockStoryService{
		getCommentsFn: func(ctx context.Context, storyID string) ([]repository.StoryCommentWithUser, error) {
			return []repository.StoryCommentWithUser{
				{StoryComment: model.StoryComment{ID: "c-1", Content: "最初", CreatedAt: base}},
				{StoryComment: model.StoryComment{ID: "c-2", Content: "次", CreatedAt: base.Add(time.Minute)}},
			}, nil
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/story-1/comments", nil)
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.GetComments(w, req)

	var body struct {
		Comments []commentResponse `json:"comments"`
	}
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Comments) != 2 {
		t.Fatalf("comments count = %d, want 2", len(body.Comments))
	}
	if body.Comments[0].ID != "c-1" || body.Comments[1].ID != "c-2" {
		t.Error("comments should preserve chronological order")
	}
}

// --- エラーマッピングテスト ---

func TestStoryHandler_InternalError_Returns500(t *testing.T) {
	svc := &mockStoryService{
		getFn: func(ctx context.Context, storyID string) (*model.Story, error) {
			return nil, errors.New("connection refused")
		},
	}

	h := NewStoryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stories/story-1", nil)
	req = withChiURLParam(req, "id", "story-1")
	w := httptest.NewRecorder()

	h.Get(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeStoryNotFound, http.StatusNotFound},
		{model.ErrCodeUserNotFound, http.StatusNotFound},
		{model.ErrCodeEmptyStory, http.StatusBadRequest},
		{model.ErrCodeEmptyComment, http.StatusBadRequest},
		{model.ErrCodeInvalidReaction, http.StatusBadRequest},
		{model.ErrCodeInvalidMediaURL, http.StatusBadRequest},
		{model.ErrCodeInvalidLocation, http.StatusBadRequest},
		{model.ErrCodeMediaURLBlocked, http.StatusForbidden},
		{model.ErrCodeStoryExpired, http.StatusGone},
		{model.ErrCodeConflict, http.StatusConflict},
		{model.ErrCodeVerifyFailed, http.StatusUnauthorized},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

// --- ルーティングテスト ---

func TestSetupStoryRoutes_Endpoints(t *testing.T) {
	svc := &mockStoryService{}
	router := SetupStoryRoutes(svc, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/stories", `{"content": "テスト"}`, http.StatusCreated},
		{http.MethodGet, "/api/stories", "", http.StatusOK},
		{http.MethodGet, "/api/stories/mine", "", http.StatusOK},
		{http.MethodGet, "/api/stories/story-1", "", http.StatusOK},
		{http.MethodPost, "/api/stories/story-1/view", "", http.StatusOK},
		{http.MethodPost, "/api/stories/story-1/like", `{"reaction_type": "like"}`, http.StatusNoContent},
		{http.MethodDelete, "/api/stories/story-1/like", "", http.StatusNoContent},
		{http.MethodGet, "/api/stories/story-1/likes", "", http.StatusOK},
		{http.MethodPost, "/api/stories/story-1/comments", `{"content": "テスト"}`, http.StatusCreated},
		{http.MethodGet, "/api/stories/story-1/comments", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			req = withUserID(req, "user-123")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.want {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, w.Result().StatusCode, tt.want)
			}
		})
	}
}
