package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/metrics"
)

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	query := struct {
		WeekStartDate string `json:"weekStartDate" validate:"omitempty,civildate"`
	}{
		WeekStartDate: r.URL.Query().Get("weekStartDate"),
	}
	if err := h.validate.Struct(query); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts, err := h.shifts.ListShifts(r.Context(), query.WeekStartDate)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "Get shifts successful", shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtx).(string)

	shift, err := h.shifts.GetShift(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "Get shift successful", shift)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Date        string `json:"date" validate:"required,civildate"`
		StartTime   string `json:"startTime" validate:"required,clocktime"`
		EndTime     string `json:"endTime" validate:"required,clocktime"`
		IgnoreClash bool   `json:"ignoreClash"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.shifts.CreateShift(r.Context(), domain.CreateShiftInput{
		Name:        req.Name,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IgnoreClash: req.IgnoreClash,
	})
	recordShiftOp("create", err)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.logger.Info().Str("actor", actor(r)).Str("id", shift.ID).Msg("已创建班次")
	h.successResponse(w, r, "Create shift successful", shift)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtx).(string)

	var req struct {
		Name        *string `json:"name" validate:"omitnil,min=1"`
		Date        *string `json:"date" validate:"omitnil,civildate"`
		StartTime   *string `json:"startTime" validate:"omitnil,clocktime"`
		EndTime     *string `json:"endTime" validate:"omitnil,clocktime"`
		IgnoreClash bool    `json:"ignoreClash"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.shifts.UpdateShift(r.Context(), id, domain.UpdateShiftInput{
		Name:        req.Name,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IgnoreClash: req.IgnoreClash,
	})
	recordShiftOp("update", err)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.logger.Info().Str("actor", actor(r)).Str("id", shift.ID).Msg("已更新班次")
	h.successResponse(w, r, "Update shift successful", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(ShiftIDCtx).(string)

	err := h.shifts.DeleteShift(r.Context(), id)
	recordShiftOp("delete", err)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.logger.Info().Str("actor", actor(r)).Str("id", id).Msg("已删除班次")
	h.successResponse(w, r, "Delete shift successful", nil)
}

// DeleteShifts 不支持批量删除，请求体无法解析时同样拒绝
func (h *Handler) DeleteShifts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.logger.Debug().Err(err).Msg("批量删除请求体无法解析")
	}

	err := h.shifts.DeleteShifts(r.Context(), req.IDs)
	recordShiftOp("delete", err)
	h.serviceError(w, r, err)
}

func recordShiftOp(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrShiftClash):
		metrics.IncShiftClash()
		result = "clash"
	default:
		result = "error"
	}
	metrics.IncShiftOp(op, result)
}
