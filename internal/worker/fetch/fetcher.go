// Package fetch はカレンダーのバックグラウンド取得処理を提供する。
// スケジューラとフェッチャーを含む。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/workman/internal/cache"
	"github.com/hitoshi/workman/internal/calendar"
	"github.com/hitoshi/workman/internal/metrics"
	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/repository"
	"github.com/hitoshi/workman/internal/resolver"
)

// CalendarClient はiCalendarデータ取得のインターフェース。
type CalendarClient interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// EventStore は解決済みイベントのキャッシュ操作のインターフェース。
type EventStore interface {
	Get(ctx context.Context, employeeID int64) ([]model.ResolvedEvent, error)
	Set(ctx context.Context, employeeID int64, events []model.ResolvedEvent) error
}

// Fetcher は個別従業員のカレンダー取得・解決・キャッシュ保存を行う。
type Fetcher struct {
	client       CalendarClient
	projectRepo  repository.ProjectRepository
	categoryRepo repository.CategoryRepository
	store        EventStore
	collector    metrics.MetricsCollector
	logger       *slog.Logger
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	client CalendarClient,
	projectRepo repository.ProjectRepository,
	categoryRepo repository.CategoryRepository,
	store EventStore,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Fetcher {
	return &Fetcher{
		client:       client,
		projectRepo:  projectRepo,
		categoryRepo: categoryRepo,
		store:        store,
		collector:    collector,
		logger:       logger,
	}
}

// Refresh は従業員のカレンダーを取得し、解決済みイベントをキャッシュに保存する。
//
// 取得や解析の失敗はその従業員に限定される。失敗時は空のイベント
// リストをキャッシュしてエラーを返すため、レポート生成は他の従業員の
// データで継続できる。
func (f *Fetcher) Refresh(ctx context.Context, employee *model.Employee) ([]model.ResolvedEvent, error) {
	if employee.CalendarURL == "" {
		f.logger.Info("カレンダーURL未設定のためスキップします",
			slog.Int64("employee_id", employee.ID),
		)
		return nil, nil
	}

	start := time.Now()

	data, err := f.client.Fetch(ctx, employee.CalendarURL)
	if err != nil {
		f.collector.RecordFetchFailure("http")
		f.logger.Error("カレンダー取得に失敗しました",
			slog.Int64("employee_id", employee.ID),
			slog.String("error", err.Error()),
		)
		f.cacheEmpty(ctx, employee.ID)
		return nil, model.NewCalendarFetchError(employee.Name)
	}
	f.collector.RecordFetchLatency(time.Since(start))

	rawEvents, err := calendar.Parse(data, employee)
	if err != nil {
		f.collector.RecordParseFailure()
		f.logger.Error("カレンダー解析に失敗しました",
			slog.Int64("employee_id", employee.ID),
			slog.String("error", err.Error()),
		)
		f.cacheEmpty(ctx, employee.ID)
		return nil, model.NewCalendarParseError(employee.Name)
	}

	resolved, err := f.resolveEvents(ctx, employee, rawEvents)
	if err != nil {
		return nil, fmt.Errorf("イベントの解決に失敗: %w", err)
	}

	if err := f.store.Set(ctx, employee.ID, resolved); err != nil {
		// キャッシュ書き込みの失敗は致命的ではない。解決結果は返す。
		f.logger.Error("イベントキャッシュの保存に失敗しました",
			slog.Int64("employee_id", employee.ID),
			slog.String("error", err.Error()),
		)
	}

	f.collector.RecordFetchSuccess()
	f.collector.RecordEventsIngested(len(resolved))
	f.logger.Info("カレンダー取得が完了しました",
		slog.Int64("employee_id", employee.ID),
		slog.Int("events_count", len(resolved)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return resolved, nil
}

// EventsFor は従業員の解決済みイベントを返す。
// キャッシュにあればそれを使い、なければカレンダーを取得する。
func (f *Fetcher) EventsFor(ctx context.Context, employee *model.Employee) ([]model.ResolvedEvent, error) {
	events, err := f.store.Get(ctx, employee.ID)
	if err == nil {
		return events, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		f.logger.Error("イベントキャッシュの取得に失敗しました",
			slog.Int64("employee_id", employee.ID),
			slog.String("error", err.Error()),
		)
	}
	return f.Refresh(ctx, employee)
}

// resolveEvents は生イベントをリゾルバでプロジェクトに紐付ける。
// リゾルバのカタログ索引は従業員の企業ごとに1回構築される。
func (f *Fetcher) resolveEvents(ctx context.Context, employee *model.Employee, rawEvents []model.RawEvent) ([]model.ResolvedEvent, error) {
	r, err := resolver.New(ctx, f.projectRepo, employee.CompanyID, f.logger)
	if err != nil {
		return nil, err
	}

	categoryList, err := f.categoryRepo.ListByCompany(ctx, employee.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの読み込みに失敗: %w", err)
	}
	categories := make(map[int64]*model.Category, len(categoryList))
	for _, c := range categoryList {
		categories[c.ID] = c
	}

	resolved := make([]model.ResolvedEvent, 0, len(rawEvents))
	for _, raw := range rawEvents {
		ev, err := r.ResolveEvent(ctx, raw, categories)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ev)
	}

	for i := 0; i < r.Created; i++ {
		f.collector.RecordProjectAutoCreated()
	}

	return resolved, nil
}

// cacheEmpty は失敗した従業員に空のイベントリストを記録する。
// レポート側はこの従業員を0イベントとして扱う。
func (f *Fetcher) cacheEmpty(ctx context.Context, employeeID int64) {
	if err := f.store.Set(ctx, employeeID, []model.ResolvedEvent{}); err != nil {
		f.logger.Error("空イベントリストの保存に失敗しました",
			slog.Int64("employee_id", employeeID),
			slog.String("error", err.Error()),
		)
	}
}
