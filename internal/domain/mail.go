package domain

import "time"

const (
	MailTypeWeekPublished = "week_published"

	NotificationQueue = "notification_queue"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WeekPublishedMailData struct {
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	PublishedAt time.Time `json:"publishedAt"`
	ShiftCount  int       `json:"shiftCount"`
}
