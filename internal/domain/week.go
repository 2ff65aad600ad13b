package domain

import "time"

// Week 以周一为起点、周日为终点，start_date 全局唯一
type Week struct {
	ID          string     `json:"id"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// WeekView 是对外返回的周信息，尚未落库的周 ID 为 null
type WeekView struct {
	ID          *string    `json:"id"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
}

func NewWeekView(week *Week) WeekView {
	id := week.ID
	return WeekView{
		ID:          &id,
		StartDate:   week.StartDate,
		EndDate:     week.EndDate,
		IsPublished: week.IsPublished,
		PublishedAt: week.PublishedAt,
	}
}

// UnsavedWeekView 用于查询一个从未被使用过的周
func UnsavedWeekView(startDate, endDate string) WeekView {
	return WeekView{
		ID:          nil,
		StartDate:   startDate,
		EndDate:     endDate,
		IsPublished: false,
		PublishedAt: nil,
	}
}
