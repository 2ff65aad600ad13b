package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/metrics"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if rw.StatusCode == 0 {
		rw.StatusCode = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		if h.config.Metrics.Enabled {
			metrics.ObserveRequest(r.Method, rw.StatusCode, duration)
		}
		h.logger.Info().
			Int("status", rw.StatusCode).
			Str("ip", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", duration).
			Msg("已处理请求")
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				h.logger.Error().Str("stack", string(debug.Stack())).Msg("panic recovered")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// auth 只在开启认证时生效，未开启时所有接口都是公开的
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.config.Auth.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		// 从 cookie 中获取 token
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.unauthorized(w, r, "not logged in")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 验证 token
		claims := &jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
			return []byte(h.config.Auth.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			h.unauthorized(w, r, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), SubCtxKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shiftID 要求路径中的 id 是 UUID，否则直接视为班次不存在
func (h *Handler) shiftID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			h.serviceError(w, r, domain.NewError(domain.KindNotFound, "shift not found"))
			return
		}

		ctx := context.WithValue(r.Context(), ShiftIDCtx, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) weekStartDate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := struct {
			WeekStartDate string `json:"weekStartDate" validate:"required,civildate"`
		}{
			WeekStartDate: chi.URLParam(r, "weekStartDate"),
		}
		if err := h.validate.Struct(params); err != nil {
			h.badRequest(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), WeekStartDateCtx, params.WeekStartDate)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
