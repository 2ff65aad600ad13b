package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/cache"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/utils"
)

// Publisher 是 *amqp.Channel 中发送消息的部分
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Pinger 用于 /readyz 检查依赖是否可用
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	translator  ut.Translator
	shifts      *service.ShiftService
	weeks       *service.WeekService
	weekCache   *cache.WeekCache
	mailChannel Publisher
	pingers     map[string]Pinger
	logger      zerolog.Logger

	Mux *chi.Mux
}

// NewHandler 中 weekCache 和 mailCh 都可以为 nil，此时对应的功能被关闭
func NewHandler(cfg *config.Config, store service.Store, weekCache *cache.WeekCache, mailCh Publisher, logger zerolog.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := utils.RegisterValidations(validate, trans); err != nil {
		return nil, err
	}

	pingers := map[string]Pinger{}
	if p, ok := store.(Pinger); ok {
		pingers["database"] = p
	}
	if weekCache != nil {
		pingers["redis"] = weekCache
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		translator:  trans,
		shifts:      service.NewShiftService(store, logger),
		weeks:       service.NewWeekService(store, logger, nil),
		weekCache:   weekCache,
		mailChannel: mailCh,
		pingers:     pingers,
		logger:      logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Get("/readyz", h.Readyz)
	if h.config.Metrics.Enabled {
		metrics.Register()
		h.Mux.Handle("/metrics", promhttp.Handler())
	}

	h.Mux.Group(func(r chi.Router) {
		if h.config.RateLimit.Requests > 0 {
			r.Use(httprate.LimitByIP(h.config.RateLimit.Requests, time.Duration(h.config.RateLimit.Window)*time.Second))
		}

		// 认证相关
		if h.config.Auth.Enabled {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", h.Login)
				r.Post("/logout", h.Logout)
			})
		}

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.With(h.auth).Post("/", h.CreateShift)
			r.With(h.auth).Delete("/", h.DeleteShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftID)
				r.Get("/", h.GetShift)
				r.With(h.auth).Patch("/", h.UpdateShift)
				r.With(h.auth).Delete("/", h.DeleteShift)
			})
		})

		r.Route("/weeks/{weekStartDate}", func(r chi.Router) {
			r.Use(h.weekStartDate)
			r.Get("/", h.GetWeek)
			r.With(h.auth).Post("/publish", h.PublishWeek)
			r.Get("/export", h.ExportWeek)
		})
	})
}
