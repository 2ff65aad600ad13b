package scheduler

import (
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
)

const (
	MinutesInDay = 24 * 60

	DateLayout = "2006-01-02"
)

// Interval 是班次在时间轴上的绝对区间，左闭右开
type Interval struct {
	StartAt         time.Time
	EndAt           time.Time
	DurationMinutes int
	DayOffset       int
}

// Overlaps 判断两个左闭右开区间是否相交，首尾相接不算冲突
func (i Interval) Overlaps(other Interval) bool {
	return i.StartAt.Before(other.EndAt) && other.StartAt.Before(i.EndAt)
}

// NormalizeTime 将 H:M、HH:MM、HH:MM:SS 统一为 HH:MM，秒直接丢弃
func NormalizeTime(t string) (string, error) {
	hours, rest, ok := strings.Cut(t, ":")
	if !ok {
		return "", domain.NewError(domain.KindInvalidInput, "invalid time format")
	}

	minutes, _, _ := strings.Cut(rest, ":")
	if len(minutes) > 2 {
		minutes = minutes[:2]
	}

	return padTwo(hours) + ":" + padTwo(minutes), nil
}

func padTwo(s string) string {
	for len(s) < 2 {
		s = "0" + s
	}
	return s
}

// MinutesOfDay 返回从零点开始的分钟数
func MinutesOfDay(t string) (int, error) {
	normalized, err := NormalizeTime(t)
	if err != nil {
		return 0, err
	}

	hourStr, minuteStr, _ := strings.Cut(normalized, ":")
	hours, err := strconv.Atoi(hourStr)
	if err != nil || hours < 0 || hours > 23 {
		return 0, domain.NewError(domain.KindInvalidInput, "invalid time value")
	}
	minutes, err := strconv.Atoi(minuteStr)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, domain.NewError(domain.KindInvalidInput, "invalid time value")
	}

	return hours*60 + minutes, nil
}

// ParseDate 解析 YYYY-MM-DD，结果以 UTC 零点表示
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, domain.NewError(domain.KindInvalidInput, "invalid date value")
	}
	return d, nil
}

// CalculateInterval 计算班次的绝对区间。结束时间不晚于开始时间时视为跨越零点
func CalculateInterval(date, startTime, endTime string) (Interval, error) {
	startMinutes, err := MinutesOfDay(startTime)
	if err != nil {
		return Interval{}, err
	}
	endMinutes, err := MinutesOfDay(endTime)
	if err != nil {
		return Interval{}, err
	}

	dayOffset := 0
	if endMinutes <= startMinutes {
		dayOffset = 1
	}
	duration := endMinutes - startMinutes + dayOffset*MinutesInDay

	if duration <= 0 {
		return Interval{}, domain.NewError(domain.KindInvalidDuration, "shift duration must be greater than 0")
	}
	if duration >= MinutesInDay {
		return Interval{}, domain.NewError(domain.KindInvalidDuration, "shift duration must be shorter than 24 hours")
	}

	day, err := ParseDate(date)
	if err != nil {
		return Interval{}, err
	}

	startAt := day.Add(time.Duration(startMinutes) * time.Minute)
	return Interval{
		StartAt:         startAt,
		EndAt:           startAt.Add(time.Duration(duration) * time.Minute),
		DurationMinutes: duration,
		DayOffset:       dayOffset,
	}, nil
}
