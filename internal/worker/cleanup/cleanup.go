// Package cleanup は期限切れリフレッシュトークンの自動削除ジョブを提供する。
// 失効・期限切れの古いトークンレコードを定期バッチで削除し、
// refresh_tokensテーブルの無制限な肥大化を防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenStore は期限切れトークンの削除に必要なインターフェース。
// repository.RefreshTokenRepositoryの部分集合として定義する。
type TokenStore interface {
	// DeleteExpired はexpires_atを過ぎたレコードを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// MetricsRecorder は削除件数をメトリクスに記録するインターフェース。
type MetricsRecorder interface {
	RecordTokensPurged(count int64)
}

// Job は期限切れリフレッシュトークンの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	store   TokenStore
	logger  *slog.Logger
	metrics MetricsRecorder // nilの場合は記録しない
}

// NewJob は新しいJobを生成する。metricsはnilを許容する。
func NewJob(store TokenStore, logger *slog.Logger, metrics MetricsRecorder) *Job {
	return &Job{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は期限切れリフレッシュトークンを1回削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("トークンクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("トークンクリーンアップの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordTokensPurged(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでクリーンアップジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("トークンクリーンアップワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("クリーンアップサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("トークンクリーンアップワーカーを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
