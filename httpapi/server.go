// Package httpapi exposes the exchange, inbox, chat and moderation services
// as a JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusswap/exchange"
	"campusswap/logger"
	"campusswap/message"
	"campusswap/notification"
	"campusswap/product"
)

type ExchangeService interface {
	Create(ctx context.Context, params exchange.CreateParams) (exchange.Details, error)
	Transition(ctx context.Context, params exchange.TransitionParams) (exchange.Details, error)
	Get(ctx context.Context, exchangeID, actorID string) (exchange.Details, error)
	List(ctx context.Context, filter exchange.ListFilter) ([]exchange.Details, error)
	ListAll(ctx context.Context, status exchange.Status, limit int) ([]exchange.Details, error)
}

type NotificationService interface {
	List(ctx context.Context, studentID string, unreadOnly bool) (notification.ListResult, error)
	MarkRead(ctx context.Context, id, studentID string) error
	MarkAllRead(ctx context.Context, studentID string) (int64, error)
}

type MessageService interface {
	Send(ctx context.Context, params message.SendParams) (message.Message, error)
	List(ctx context.Context, exchangeID, actorID string) ([]message.Message, error)
}

type ProductService interface {
	Remove(ctx context.Context, params product.RemoveParams) (exchange.Product, error)
}

// Config carries the collaborators of the router. Health may be nil.
type Config struct {
	Exchanges      ExchangeService
	Notifications  NotificationService
	Messages       MessageService
	Products       ProductService
	Verifier       TokenVerifier
	Log            *logger.Logger
	RequestTimeout time.Duration
	Health         func(ctx context.Context) error
}

type handler struct {
	exchanges     ExchangeService
	notifications NotificationService
	messages      MessageService
	products      ProductService
	log           *logger.Logger
	health        func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	h := &handler{
		exchanges:     cfg.Exchanges,
		notifications: cfg.Notifications,
		messages:      cfg.Messages,
		products:      cfg.Products,
		log:           log,
		health:        cfg.Health,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(requestTimeout(cfg.RequestTimeout))

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	api.Use(requireAuth(cfg.Verifier, log))
	{
		api.GET("/exchanges", h.listExchanges)
		api.GET("/exchanges/:id", h.getExchange)
		api.POST("/exchanges", h.createExchange)
		api.PATCH("/exchanges", h.updateExchange)

		api.GET("/notifications", h.listNotifications)
		api.PATCH("/notifications", h.updateNotifications)

		api.GET("/messages", h.listMessages)
		api.POST("/messages", h.sendMessage)

		admin := api.Group("/admin")
		admin.Use(requireAdmin())
		admin.DELETE("/products/:id", h.removeProduct)
	}
	return r
}

// Server owns the listening http.Server.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, cfg Config) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
