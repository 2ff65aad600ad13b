package handler

import "net/http"

type ContextKey string

var (
	SubCtxKey        ContextKey = "sub"
	ShiftIDCtx       ContextKey = "shiftID"
	WeekStartDateCtx ContextKey = "weekStartDate"
)

// actor 返回当前登录的管理员，未开启认证时为 anonymous
func actor(r *http.Request) string {
	if sub, ok := r.Context().Value(SubCtxKey).(string); ok && sub != "" {
		return sub
	}
	return "anonymous"
}
