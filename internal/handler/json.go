package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
)

const internalErrorMessage = "internal server error"

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("服务器内部错误")
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return domain.NewError(domain.KindInvalidInput, "invalid JSON body")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.errorResponse(w, r, http.StatusBadRequest, validationErrors[0].Translate(h.translator), nil)
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	h.errorResponse(w, r, http.StatusUnauthorized, msg, nil)
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, internalErrorMessage, nil)
}

// serviceError 将业务错误一一映射为状态码，其余错误一律视为服务器内部错误
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		h.internalServerError(w, r, err)
		return
	}

	status := statusForKind(derr.Kind)
	if status == http.StatusInternalServerError {
		h.internalServerError(w, r, err)
		return
	}

	h.errorResponse(w, r, status, derr.Message, derr.Data)
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput,
		domain.KindInvalidDuration,
		domain.KindWeekPublished,
		domain.KindAlreadyPublished,
		domain.KindEmptyWeek,
		domain.KindUnsupportedOperation:
		return http.StatusBadRequest
	case domain.KindShiftClash:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
