// Package cleanup は失効ストーリーのストレージ回収ジョブを提供する。
// 失効の正しさは読み取り時のexpires_at比較のみで保証されており、
// このジョブは猶予期間（デフォルト48時間）を過ぎた失効済み行を
// 日次バッチで物理削除するだけの存在である。ジョブが止まっていても
// 失効済みストーリーが可視になることはない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bivochat/stories/internal/metrics"
)

// DefaultRetentionGrace は失効後に行を保持するデフォルトの猶予期間。
const DefaultRetentionGrace = 48 * time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は失効ストーリーの物理削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
// 紐づく閲覧記録・リアクション・コメントはCASCADE削除で自動的に処理される。
type CleanupJob struct {
	db        Executor
	logger    *slog.Logger
	collector metrics.MetricsCollector

	// RetentionGrace は失効後に行を保持する猶予期間（デフォルト: 48時間）。
	// 失効直後の閲覧・リアクション集計の参照を壊さないための余裕。
	RetentionGrace time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
// collectorはnilを許容する。
func NewCleanupJob(db Executor, logger *slog.Logger, collector metrics.MetricsCollector) *CleanupJob {
	return &CleanupJob{
		db:             db,
		logger:         logger,
		collector:      collector,
		RetentionGrace: DefaultRetentionGrace,
	}
}

// Run は猶予期間を過ぎた失効済みストーリーを削除する。
// expires_atがRetentionGrace前より古い行をDELETEする。
// 閲覧記録・リアクション・コメントはCASCADE削除により自動的に削除される。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d hours", int(j.RetentionGrace.Hours()))

	query := `DELETE FROM stories WHERE expires_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("ストーリークリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.String("retention_grace", interval),
		)
		return fmt.Errorf("ストーリークリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.collector != nil {
		j.collector.RecordCleanupDeleted(int(deletedCount))
	}

	duration := time.Since(start)
	j.logger.Info("ストーリークリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.String("retention_grace", interval),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start はクリーンアップジョブを指定間隔で繰り返し実行する。
// 起動直後に1回実行し、以後はintervalごとに実行する。
// コンテキストのキャンセルで停止する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
