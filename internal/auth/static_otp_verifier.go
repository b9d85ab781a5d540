package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
)

// StaticOTPVerifier は固定コードを受け付けるOTPVerifier実装。
// SMSプロバイダー未接続の開発環境・テスト環境で使用する。
// 本番環境では外部プロバイダーの実装に差し替えること。
type StaticOTPVerifier struct {
	code string
}

// NewStaticOTPVerifier はStaticOTPVerifierを生成する。
func NewStaticOTPVerifier(code string) *StaticOTPVerifier {
	return &StaticOTPVerifier{code: code}
}

// SendCode は実際には送信せずログに記録するだけ。
func (v *StaticOTPVerifier) SendCode(ctx context.Context, phone string) error {
	slog.Info("開発用OTP: コード送信をスキップしました", slog.String("phone", maskPhone(phone)))
	return nil
}

// VerifyCode は設定された固定コードとの一致を検証する。
func (v *StaticOTPVerifier) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	if v.code == "" || code == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(v.code), []byte(code)) == 1, nil
}

// compile-time interface check
var _ OTPVerifier = (*StaticOTPVerifier)(nil)
