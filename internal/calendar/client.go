package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Client は従業員のカレンダーURLからiCalendarデータを取得する。
// URLは従業員が自分で設定するため、全リクエストをSSRF検証付きの
// HTTPクライアントで実行する。
type Client struct {
	ssrfGuard   SSRFValidator
	timeout     time.Duration
	maxBodySize int64
}

// NewClient はClientを生成する。
func NewClient(ssrfGuard SSRFValidator, timeout time.Duration, maxBodySize int64) *Client {
	return &Client{
		ssrfGuard:   ssrfGuard,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Fetch はカレンダーURLからiCalendarデータを取得する。
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.ssrfGuard.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("カレンダーURLの検証に失敗: %w", err)
	}

	client := c.ssrfGuard.NewSafeClient(c.timeout, c.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Workman/1.0 Calendar Reader")
	req.Header.Set("Accept", "text/calendar, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("カレンダーの取得に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("カレンダー取得で予期しないHTTPステータス: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}
	return body, nil
}
