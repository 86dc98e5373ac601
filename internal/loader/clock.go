package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fishwell-data-transformer/internal/models"
)

// ClockTime 一天内的墙钟时刻（光照表用）
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseClockTime 解析 "9:00:00" / "23:00" 形式的时刻
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ClockTime{}, fmt.Errorf("%w: invalid clock time %q", models.ErrConfiguration, s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ClockTime{}, fmt.Errorf("%w: invalid clock time %q", models.ErrConfiguration, s)
		}
		vals[i] = n
	}
	c := ClockTime{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return ClockTime{}, fmt.Errorf("%w: clock time %q out of range", models.ErrConfiguration, s)
	}
	return c, nil
}

// SecondsOfDay 距当日零点的秒数
func (c ClockTime) SecondsOfDay() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// OnDate 把时刻落到某个日期上
func (c ClockTime) OnDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, c.Second, 0, t.Location())
}

// secondsOfDay 某个时间点距其当日零点的秒数
func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
