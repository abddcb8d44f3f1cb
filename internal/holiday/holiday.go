// Package holiday は地域別の祝日カレンダーを提供する。
package holiday

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"

	"github.com/hitoshi/workman/internal/availability"
)

// Calendar は地域の法定休日を判定する。
type Calendar struct {
	inner *cal.Calendar
}

var _ availability.HolidayChecker = (*Calendar)(nil)

// NewCalendar は地域コードに対応する祝日カレンダーを返す。
// 対応コードは "fr"・"us"・"gb"。
func NewCalendar(region string) (*Calendar, error) {
	var holidays []*cal.Holiday
	switch strings.ToLower(region) {
	case "fr":
		holidays = fr.Holidays
	case "us":
		holidays = us.Holidays
	case "gb":
		holidays = gb.Holidays
	default:
		return nil, fmt.Errorf("未対応の祝日地域コード: %q", region)
	}

	inner := &cal.Calendar{}
	inner.AddHoliday(holidays...)
	return &Calendar{inner: inner}, nil
}

// IsHoliday は指定日が法定休日かどうかを返す。
func (c *Calendar) IsHoliday(day time.Time) bool {
	actual, _, _ := c.inner.IsHoliday(day)
	return actual
}
