package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/repository"
)

// CalendarFetcherService はカレンダー取得の実行インターフェース。
type CalendarFetcherService interface {
	// Refresh は従業員のカレンダーを取得し、キャッシュを更新する。
	Refresh(ctx context.Context, employee *model.Employee) ([]model.ResolvedEvent, error)
}

// Scheduler はカレンダー取得のスケジューリングと並列制御を行う。
// 定期ティッカーで有効な従業員を取得し、semaphoreパターンで
// 最大並列数を制御しながらフェッチを実行する。
type Scheduler struct {
	employeeRepo   repository.EmployeeRepository
	fetcher        CalendarFetcherService
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
func NewScheduler(
	employeeRepo repository.EmployeeRepository,
	fetcher CalendarFetcherService,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Scheduler{
		employeeRepo:   employeeRepo,
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("カレンダー取得スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("取得サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("カレンダー取得スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("取得サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は有効な従業員を1回取得し、並列でカレンダーを取得する。
// 1人の従業員の失敗はログに記録するのみで、サイクル全体は継続する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	cycleID := uuid.New().String()

	employees, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	if len(employees) == 0 {
		s.logger.Info("取得対象の従業員はいません",
			slog.String("cycle_id", cycleID),
		)
		return nil
	}

	s.logger.Info("取得サイクルを開始します",
		slog.String("cycle_id", cycleID),
		slog.Int("employee_count", len(employees)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, employee := range employees {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(e *model.Employee) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if _, err := s.fetcher.Refresh(ctx, e); err != nil {
				s.logger.Error("カレンダー取得に失敗しました",
					slog.String("cycle_id", cycleID),
					slog.Int64("employee_id", e.ID),
					slog.String("error", err.Error()),
				)
			}
		}(employee)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("取得サイクルが完了しました",
		slog.String("cycle_id", cycleID),
		slog.Int("employee_count", len(employees)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
