package fetch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/workman/internal/cache"
	"github.com/hitoshi/workman/internal/model"
)

// mockClient はテスト用のカレンダークライアント。
type mockClient struct {
	data       []byte
	err        error
	fetchCalls int
}

func (m *mockClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	m.fetchCalls++
	return m.data, m.err
}

// mockStore はテスト用のインメモリイベントキャッシュ。
type mockStore struct {
	events   map[int64][]model.ResolvedEvent
	setCalls int
}

func newMockStore() *mockStore {
	return &mockStore{events: make(map[int64][]model.ResolvedEvent)}
}

func (m *mockStore) Get(ctx context.Context, employeeID int64) ([]model.ResolvedEvent, error) {
	events, ok := m.events[employeeID]
	if !ok {
		return nil, cache.ErrMiss
	}
	return events, nil
}

func (m *mockStore) Set(ctx context.Context, employeeID int64, events []model.ResolvedEvent) error {
	m.setCalls++
	m.events[employeeID] = events
	return nil
}

// mockProjectRepo はテスト用のプロジェクトカタログ。
type mockProjectRepo struct {
	projects []*model.Project
	nextID   int64
}

func (m *mockProjectRepo) ListByCompany(ctx context.Context, companyID int64) ([]*model.Project, error) {
	return m.projects, nil
}

func (m *mockProjectRepo) ListAliasesByCompany(ctx context.Context, companyID int64) ([]*model.Alias, error) {
	return nil, nil
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	m.nextID++
	created := *project
	created.ID = m.nextID + 500
	m.projects = append(m.projects, &created)
	return &created, nil
}

func (m *mockProjectRepo) CreateAlias(ctx context.Context, alias *model.Alias) (*model.Alias, error) {
	return alias, nil
}

// mockCategoryRepo はテスト用のカテゴリリポジトリ。
type mockCategoryRepo struct {
	categories []*model.Category
}

func (m *mockCategoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]*model.Category, error) {
	return m.categories, nil
}

// mockCollector はテスト用のメトリクス収集。
type mockCollector struct {
	fetchSuccess int
	fetchFail    int
	parseFail    int
	ingested     int
	autoCreated  int
}

func (m *mockCollector) RecordFetchSuccess()                { m.fetchSuccess++ }
func (m *mockCollector) RecordFetchFailure(reason string)   { m.fetchFail++ }
func (m *mockCollector) RecordParseFailure()                { m.parseFail++ }
func (m *mockCollector) RecordFetchLatency(d time.Duration) {}
func (m *mockCollector) RecordEventsIngested(count int)     { m.ingested += count }
func (m *mockCollector) RecordProjectAutoCreated()          { m.autoCreated++ }

const testICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:Acme - 定例\r\n" +
	"DTSTART:20240312T090000Z\r\nDTEND:20240312T130000Z\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func testEmployee() *model.Employee {
	return &model.Employee{
		ID:                        1,
		CompanyID:                 10,
		Name:                      "Tanaka",
		CalendarURL:               "https://calendars.example.com/tanaka.ics",
		DefaultDayWorkingHours:    8,
		MinWorkingHoursForFullDay: 6,
	}
}

func newTestFetcher(client *mockClient, store *mockStore, collector *mockCollector) *Fetcher {
	return NewFetcher(
		client,
		&mockProjectRepo{},
		&mockCategoryRepo{},
		store,
		collector,
		slog.New(slog.DiscardHandler),
	)
}

// 取得成功時はイベントが解決されキャッシュに保存される
func TestRefresh_Success(t *testing.T) {
	client := &mockClient{data: []byte(testICS)}
	store := newMockStore()
	collector := &mockCollector{}
	f := newTestFetcher(client, store, collector)

	events, err := f.Refresh(context.Background(), testEmployee())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].ProjectName != "Acme" {
		t.Errorf("ProjectName = %q, want %q", events[0].ProjectName, "Acme")
	}
	if events[0].ProjectID == 0 {
		t.Error("ProjectID should be assigned by auto-creation")
	}

	cached, ok := store.events[1]
	if !ok || len(cached) != 1 {
		t.Errorf("cached events = %v, want 1 entry", cached)
	}
	if collector.fetchSuccess != 1 || collector.ingested != 1 || collector.autoCreated != 1 {
		t.Errorf("collector = %+v, want fetchSuccess=1 ingested=1 autoCreated=1", collector)
	}
}

// 取得失敗時は空リストがキャッシュされ、従業員名入りのエラーが返る
func TestRefresh_FetchFailureIsolated(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	store := newMockStore()
	collector := &mockCollector{}
	f := newTestFetcher(client, store, collector)

	_, err := f.Refresh(context.Background(), testEmployee())
	if err == nil {
		t.Fatal("Refresh() error = nil, want error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeCalendarFetchFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeCalendarFetchFailed)
	}

	cached, ok := store.events[1]
	if !ok || len(cached) != 0 {
		t.Errorf("cached = %v, want empty list", cached)
	}
	if collector.fetchFail != 1 {
		t.Errorf("fetchFail = %d, want 1", collector.fetchFail)
	}
}

// 解析失敗時も空リストがキャッシュされる
func TestRefresh_ParseFailureIsolated(t *testing.T) {
	client := &mockClient{data: []byte("not an icalendar")}
	store := newMockStore()
	collector := &mockCollector{}
	f := newTestFetcher(client, store, collector)

	_, err := f.Refresh(context.Background(), testEmployee())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeCalendarParseFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeCalendarParseFailed)
	}
	if collector.parseFail != 1 {
		t.Errorf("parseFail = %d, want 1", collector.parseFail)
	}
}

// カレンダーURL未設定の従業員はスキップされる
func TestRefresh_SkipsEmployeeWithoutURL(t *testing.T) {
	client := &mockClient{data: []byte(testICS)}
	store := newMockStore()
	f := newTestFetcher(client, store, &mockCollector{})

	emp := testEmployee()
	emp.CalendarURL = ""

	events, err := f.Refresh(context.Background(), emp)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if events != nil {
		t.Errorf("events = %v, want nil", events)
	}
	if client.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0", client.fetchCalls)
	}
}

// キャッシュヒット時は取得を行わない
func TestEventsFor_CacheHit(t *testing.T) {
	client := &mockClient{data: []byte(testICS)}
	store := newMockStore()
	store.events[1] = []model.ResolvedEvent{{ProjectID: 7}}
	f := newTestFetcher(client, store, &mockCollector{})

	events, err := f.EventsFor(context.Background(), testEmployee())
	if err != nil {
		t.Fatalf("EventsFor() error = %v", err)
	}
	if len(events) != 1 || events[0].ProjectID != 7 {
		t.Errorf("events = %v, want cache entry with ProjectID=7", events)
	}
	if client.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0", client.fetchCalls)
	}
}

// キャッシュミス時は取得にフォールバックする
func TestEventsFor_CacheMissTriggersRefresh(t *testing.T) {
	client := &mockClient{data: []byte(testICS)}
	store := newMockStore()
	f := newTestFetcher(client, store, &mockCollector{})

	events, err := f.EventsFor(context.Background(), testEmployee())
	if err != nil {
		t.Fatalf("EventsFor() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1", len(events))
	}
	if client.fetchCalls != 1 {
		t.Errorf("fetchCalls = %d, want 1", client.fetchCalls)
	}
}
