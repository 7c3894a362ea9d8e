// Package sweep は期限切れセッションの自動削除ジョブを提供する。
// expireが現在時刻を過ぎたセッション行を日次バッチで削除する。
// 期限切れセッションは読み取り時点で無効として扱われるため、
// スイープの遅延が認証の正しさに影響することはない。
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/gitquiz/internal/repository"
)

// SweepMetrics はスイープに必要なメトリクス記録のインターフェース。
type SweepMetrics interface {
	RecordSessionsSwept(count int64)
}

// SweepJob は期限切れセッションの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type SweepJob struct {
	sessions repository.SessionRepository
	metrics  SweepMetrics
	logger   *slog.Logger
}

// NewSweepJob は新しいSweepJobを生成する。metricsはnilでもよい。
func NewSweepJob(sessions repository.SessionRepository, metrics SweepMetrics, logger *slog.Logger) *SweepJob {
	return &SweepJob{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run は期限切れセッションを1回削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *SweepJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.sessions.DeleteExpired(ctx, start)
	if err != nil {
		j.logger.Error("セッションスイープの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションスイープの実行に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsSwept(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("セッションスイープが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は指定間隔のティッカーでスイープを起動する。
// 起動直後に1回実行し、以降はコンテキストがキャンセルされるまで継続する。
func (j *SweepJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションスイープを開始しました",
		slog.Duration("interval", interval),
	)

	if err := j.Run(ctx); err != nil {
		j.logger.Error("セッションスイープに失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションスイープを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("セッションスイープに失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
