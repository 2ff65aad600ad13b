package domain

import "time"

type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	WeekID    string `json:"weekID"`
	// 冗余字段，仅由发布时的级联更新写入，读取时以 Week 为准
	IsPublished bool       `json:"-"`
	PublishedAt *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Week *Week `json:"week"`
}

type ShiftView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Date        string     `json:"date"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
	Week        *WeekView  `json:"week"`
}

// NewShiftView 的发布状态永远从所属的周读取
func NewShiftView(shift *Shift) ShiftView {
	view := ShiftView{
		ID:        shift.ID,
		Name:      shift.Name,
		Date:      shift.Date,
		StartTime: TrimSeconds(shift.StartTime),
		EndTime:   TrimSeconds(shift.EndTime),
	}

	if shift.Week != nil {
		weekView := NewWeekView(shift.Week)
		view.IsPublished = shift.Week.IsPublished
		view.PublishedAt = shift.Week.PublishedAt
		view.Week = &weekView
	}

	return view
}

// TrimSeconds 将 HH:MM:SS 截断为 HH:MM
func TrimSeconds(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}

type CreateShiftInput struct {
	Name        string
	Date        string
	StartTime   string
	EndTime     string
	IgnoreClash bool
}

// UpdateShiftInput 中为 nil 的字段保持原值
type UpdateShiftInput struct {
	Name        *string
	Date        *string
	StartTime   *string
	EndTime     *string
	IgnoreClash bool
}
