package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/export"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/scheduler"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	weekStartDate := r.Context().Value(WeekStartDateCtx).(string)

	bounds, err := scheduler.WeekBounds(weekStartDate)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 缓存只是加速，读取失败时回退到数据库
	cached, ok, err := h.weekCache.Get(r.Context(), bounds.StartDate)
	if err != nil {
		h.logger.Warn().Err(err).Str("startDate", bounds.StartDate).Msg("读取周缓存失败")
	}
	if ok {
		h.successResponse(w, r, "Get week successful", cached)
		return
	}

	week, err := h.weeks.GetWeek(r.Context(), weekStartDate)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.cacheWeek(r.Context(), week)
	h.successResponse(w, r, "Get week successful", week)
}

func (h *Handler) PublishWeek(w http.ResponseWriter, r *http.Request) {
	weekStartDate := r.Context().Value(WeekStartDateCtx).(string)

	week, shiftCount, err := h.weeks.PublishWeek(r.Context(), weekStartDate)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	metrics.IncWeekPublished()
	h.logger.Info().Str("actor", actor(r)).Str("startDate", week.StartDate).Int("shifts", shiftCount).Msg("已发布周")

	h.cacheWeek(r.Context(), week)
	h.notifyWeekPublished(week, shiftCount)

	h.successResponse(w, r, "Publish week successful", week)
}

func (h *Handler) ExportWeek(w http.ResponseWriter, r *http.Request) {
	weekStartDate := r.Context().Value(WeekStartDateCtx).(string)

	week, shifts, err := h.weeks.WeekRoster(r.Context(), weekStartDate)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 先写入缓冲区，避免生成失败时已经发出了部分响应
	var buf bytes.Buffer
	if err := export.WriteRoster(&buf, week, shifts); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(week)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) cacheWeek(ctx context.Context, week domain.WeekView) {
	if err := h.weekCache.Set(ctx, week); err != nil {
		h.logger.Warn().Err(err).Str("startDate", week.StartDate).Msg("写入周缓存失败")
	}
}

// notifyWeekPublished 向每个收件人投递一条通知，投递失败不影响发布结果
func (h *Handler) notifyWeekPublished(week domain.WeekView, shiftCount int) {
	if h.mailChannel == nil || week.PublishedAt == nil {
		return
	}

	data := domain.WeekPublishedMailData{
		StartDate:   week.StartDate,
		EndDate:     week.EndDate,
		PublishedAt: *week.PublishedAt,
		ShiftCount:  shiftCount,
	}

	for _, to := range h.config.Email.Recipients {
		mailMessage := domain.MailMessage{
			Type: domain.MailTypeWeekPublished,
			To:   to,
			Data: data,
		}

		// 对邮件进行序列化
		body, err := json.Marshal(mailMessage)
		if err != nil {
			h.logger.Error().Err(err).Msg("邮件信息序列化失败")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
		err = h.mailChannel.PublishWithContext(
			ctx,
			"",
			domain.NotificationQueue,
			true,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		)
		cancel()
		if err != nil {
			h.logger.Error().Err(err).Str("to", to).Msg("无法投递发布通知")
		}
	}
}
