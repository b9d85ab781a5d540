// Package auth は電話番号+認証コードによるログインフロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bivochat/stories/internal/model"
	"github.com/bivochat/stories/internal/repository"
)

// OTPVerifier は認証コード（ワンタイムパスワード）の検証インターフェース。
// 実際のSMS送信・検証は外部プロバイダーに委ねるための抽象化。
type OTPVerifier interface {
	// SendCode は指定の電話番号へ認証コードを送信する。
	SendCode(ctx context.Context, phone string) error
	// VerifyCode は電話番号と認証コードの組を検証する。
	// 検証成功ならtrue、不一致ならfalseを返す。
	VerifyCode(ctx context.Context, phone, code string) (bool, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	verifier    OTPVerifier
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	verifier OTPVerifier,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		verifier:    verifier,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// RequestCode は指定の電話番号へ認証コードの送信を依頼する。
func (s *Service) RequestCode(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}

	if err := s.verifier.SendCode(ctx, phone); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	slog.Info("認証コードを送信しました", slog.String("phone", maskPhone(phone)))
	return nil
}

// VerifyInput は認証コード検証の入力。
type VerifyInput struct {
	Phone    string
	Code     string
	Name     string // 初回登録時の表示名
	Location string // 初回登録時の地域
}

// HandleVerify は認証コードを検証し、セッションを発行する。
// 未登録の電話番号の場合はusersレコードを自動作成する（初回ログイン=登録）。
// 登録済みの場合は既存ユーザーとしてログインする。
func (s *Service) HandleVerify(ctx context.Context, input VerifyInput) (*model.Session, error) {
	ok, err := s.verifier.VerifyCode(ctx, input.Phone, input.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return nil, model.NewVerifyFailedError()
	}

	user, err := s.userRepo.FindByPhone(ctx, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}

	var userID string

	if user != nil {
		userID = user.ID
		slog.Info("既存ユーザーがログインしました", slog.String("user_id", userID))
	} else {
		// 初回ログイン: ユーザーを自動作成する
		now := time.Now()
		newUser := &model.User{
			ID:         uuid.New().String(),
			Phone:      input.Phone,
			Name:       input.Name,
			Location:   input.Location,
			IsVerified: false,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := s.userRepo.Create(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		userID = newUser.ID
		slog.Info("新規ユーザーを作成しました",
			slog.String("user_id", userID),
			slog.String("location", input.Location),
		)
	}

	session, err := s.createSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("ログアウトしました", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// maskPhone はログ出力用に電話番号の末尾4桁以外を伏せる。
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
