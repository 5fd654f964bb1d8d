package internal

import (
	"fmt"
	"time"
)

const (
	minuteMs = int64(time.Minute / time.Millisecond)
	hourMs   = 60 * minuteMs
	dayMs    = 24 * hourMs
	weekMs   = 7 * dayMs
	monthMs  = 30 * dayMs
)

// FormatRelativeTime renders an epoch-millis timestamp relative to now in
// Vietnamese, falling back to the calendar date after a month.
func FormatRelativeTime(ts int64, now time.Time) string {
	diff := now.UnixMilli() - ts
	switch {
	case diff < minuteMs:
		return "Vừa xong"
	case diff < hourMs:
		return fmt.Sprintf("%d phút trước", diff/minuteMs)
	case diff < dayMs:
		return fmt.Sprintf("%d giờ trước", diff/hourMs)
	case diff < weekMs:
		return fmt.Sprintf("%d ngày trước", diff/dayMs)
	case diff < monthMs:
		return fmt.Sprintf("%d tuần trước", diff/weekMs)
	}
	return FormatDate(time.UnixMilli(ts).In(now.Location()))
}
