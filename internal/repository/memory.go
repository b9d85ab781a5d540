package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bivochat/stories/internal/model"
)

// MemoryStore は全リポジトリインターフェースのインメモリ実装を提供する。
// エンジンのテストおよびDBなしのローカル起動で使用する。
// 単一のRWMutexで全コレクションを保護し、閲覧・リアクションの
// 挿入と重複判定をロック内の単一操作として行う。
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	sessions map[string]*model.Session
	stories  map[string]*model.Story
	views    map[string]map[string]*model.StoryView // storyID -> userID -> view
	likes    map[string]map[string]*model.StoryLike // storyID -> userID -> like
	comments map[string][]*model.StoryComment       // storyID -> 追記順
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]*model.Session),
		stories:  make(map[string]*model.Story),
		views:    make(map[string]map[string]*model.StoryView),
		likes:    make(map[string]map[string]*model.StoryLike),
		comments: make(map[string][]*model.StoryComment),
	}
}

// Users はUserRepositoryビューを返す。
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepo{s} }

// Sessions はSessionRepositoryビューを返す。
func (s *MemoryStore) Sessions() SessionRepository { return &memorySessionRepo{s} }

// Stories はStoryRepositoryビューを返す。
func (s *MemoryStore) Stories() StoryRepository { return &memoryStoryRepo{s} }

// Views はStoryViewRepositoryビューを返す。
func (s *MemoryStore) Views() StoryViewRepository { return &memoryStoryViewRepo{s} }

// Likes はStoryLikeRepositoryビューを返す。
func (s *MemoryStore) Likes() StoryLikeRepository { return &memoryStoryLikeRepo{s} }

// Comments はStoryCommentRepositoryビューを返す。
func (s *MemoryStore) Comments() StoryCommentRepository { return &memoryStoryCommentRepo{s} }

// --- UserRepository ---

type memoryUserRepo struct{ s *MemoryStore }

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (r *memoryUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.users {
		if user.Phone == phone {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r *memoryUserRepo) UpdateLocation(ctx context.Context, id, location string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil
	}
	user.Location = location
	user.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUserRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

// --- SessionRepository ---

type memorySessionRepo struct{ s *MemoryStore }

func (r *memorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess := *session
	r.s.sessions[session.ID] = &sess
	return nil
}

func (r *memorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	session, ok := r.s.sessions[id]
	if !ok || !session.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	sess := *session
	return &sess, nil
}

func (r *memorySessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r *memorySessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

// --- StoryRepository ---

type memoryStoryRepo struct{ s *MemoryStore }

func (r *memoryStoryRepo) FindByID(ctx context.Context, id string) (*model.Story, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	story, ok := r.s.stories[id]
	if !ok {
		return nil, nil
	}
	st := *story
	st.ViewCount = len(r.s.views[id])
	return &st, nil
}

func (r *memoryStoryRepo) Create(ctx context.Context, story *model.Story) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := *story
	r.s.stories[story.ID] = &st
	return nil
}

func (r *memoryStoryRepo) ListActiveByLocation(ctx context.Context, location, viewerID string, now time.Time) ([]StoryFeedRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var results []StoryFeedRow
	for _, story := range r.s.stories {
		if story.Location != location || !now.Before(story.ExpiresAt) {
			continue
		}

		row := StoryFeedRow{Story: *story}
		row.ViewCount = len(r.s.views[story.ID])
		row.LikeCount = len(r.s.likes[story.ID])
		row.CommentCount = len(r.s.comments[story.ID])
		_, row.ViewerHasLiked = r.s.likes[story.ID][viewerID]
		_, row.ViewerHasViewed = r.s.views[story.ID][viewerID]

		if owner, ok := r.s.users[story.UserID]; ok {
			row.HasOwner = true
			row.OwnerName = owner.Name
			row.OwnerAvatarURL = owner.AvatarURL
			row.OwnerVerified = owner.IsVerified
		}

		results = append(results, row)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}

func (r *memoryStoryRepo) ListActiveByOwner(ctx context.Context, ownerID string, now time.Time) ([]*model.Story, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var results []*model.Story
	for _, story := range r.s.stories {
		if story.UserID != ownerID || !now.Before(story.ExpiresAt) {
			continue
		}
		st := *story
		st.ViewCount = len(r.s.views[story.ID])
		results = append(results, &st)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}

func (r *memoryStoryRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, story := range r.s.stories {
		if story.UserID == userID {
			delete(r.s.stories, id)
			delete(r.s.views, id)
			delete(r.s.likes, id)
			delete(r.s.comments, id)
		}
	}
	return nil
}

// --- StoryViewRepository ---

type memoryStoryViewRepo struct{ s *MemoryStore }

func (r *memoryStoryViewRepo) Record(ctx context.Context, view *model.StoryView) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byUser, ok := r.s.views[view.StoryID]
	if !ok {
		byUser = make(map[string]*model.StoryView)
		r.s.views[view.StoryID] = byUser
	}
	if _, exists := byUser[view.UserID]; exists {
		return false, nil
	}

	v := *view
	byUser[view.UserID] = &v
	return true, nil
}

func (r *memoryStoryViewRepo) CountByStory(ctx context.Context, storyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.views[storyID]), nil
}

func (r *memoryStoryViewRepo) ListViewerIDs(ctx context.Context, storyID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var viewerIDs []string
	for userID := range r.s.views[storyID] {
		viewerIDs = append(viewerIDs, userID)
	}
	return viewerIDs, nil
}

func (r *memoryStoryViewRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, byUser := range r.s.views {
		delete(byUser, userID)
	}
	return nil
}

// --- StoryLikeRepository ---

type memoryStoryLikeRepo struct{ s *MemoryStore }

func (r *memoryStoryLikeRepo) Upsert(ctx context.Context, like *model.StoryLike) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byUser, ok := r.s.likes[like.StoryID]
	if !ok {
		byUser = make(map[string]*model.StoryLike)
		r.s.likes[like.StoryID] = byUser
	}

	if existing, exists := byUser[like.UserID]; exists {
		existing.ReactionType = like.ReactionType
		return nil
	}

	l := *like
	byUser[like.UserID] = &l
	return nil
}

func (r *memoryStoryLikeRepo) Delete(ctx context.Context, storyID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.likes[storyID], userID)
	return nil
}

func (r *memoryStoryLikeRepo) Exists(ctx context.Context, storyID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, exists := r.s.likes[storyID][userID]
	return exists, nil
}

func (r *memoryStoryLikeRepo) ListByStory(ctx context.Context, storyID string) ([]StoryLikeWithUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var results []StoryLikeWithUser
	for _, like := range r.s.likes[storyID] {
		row := StoryLikeWithUser{StoryLike: *like}
		if user, ok := r.s.users[like.UserID]; ok {
			row.UserName = user.Name
			row.UserAvatarURL = user.AvatarURL
		}
		results = append(results, row)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	return results, nil
}

func (r *memoryStoryLikeRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, byUser := range r.s.likes {
		delete(byUser, userID)
	}
	return nil
}

// --- StoryCommentRepository ---

type memoryStoryCommentRepo struct{ s *MemoryStore }

func (r *memoryStoryCommentRepo) Create(ctx context.Context, comment *model.StoryComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *comment
	r.s.comments[comment.StoryID] = append(r.s.comments[comment.StoryID], &c)
	return nil
}

func (r *memoryStoryCommentRepo) ListByStory(ctx context.Context, storyID string) ([]StoryCommentWithUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := r.s.comments[storyID]
	results := make([]StoryCommentWithUser, 0, len(comments))
	for _, comment := range comments {
		row := StoryCommentWithUser{StoryComment: *comment}
		if user, ok := r.s.users[comment.UserID]; ok {
			row.UserName = user.Name
			row.UserAvatarURL = user.AvatarURL
		}
		results = append(results, row)
	}

	// 追記順を保持しているが、作成時刻での安定ソートで時系列順を保証する
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	return results, nil
}

func (r *memoryStoryCommentRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for storyID, comments := range r.s.comments {
		kept := comments[:0]
		for _, comment := range comments {
			if comment.UserID != userID {
				kept = append(kept, comment)
			}
		}
		r.s.comments[storyID] = kept
	}
	return nil
}

// --- compile-time interface checks ---

var _ UserRepository = (*memoryUserRepo)(nil)
var _ SessionRepository = (*memorySessionRepo)(nil)
var _ StoryRepository = (*memoryStoryRepo)(nil)
var _ StoryViewRepository = (*memoryStoryViewRepo)(nil)
var _ StoryLikeRepository = (*memoryStoryLikeRepo)(nil)
var _ StoryCommentRepository = (*memoryStoryCommentRepo)(nil)
