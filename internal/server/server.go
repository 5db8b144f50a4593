package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditservice "github.com/wavelinklabs/wavelink/internal/audit/service"
	billingdomain "github.com/wavelinklabs/wavelink/internal/billing/domain"
	"github.com/wavelinklabs/wavelink/internal/config"
	"github.com/wavelinklabs/wavelink/internal/customer"
	"github.com/wavelinklabs/wavelink/internal/invoice/render"
	invoiceservice "github.com/wavelinklabs/wavelink/internal/invoice/service"
	"github.com/wavelinklabs/wavelink/internal/paylink"
	"github.com/wavelinklabs/wavelink/internal/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(Start),
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	Registry    *prometheus.Registry
	Ledger      billingdomain.Ledger
	Advance     billingdomain.AdvanceBalance
	Customers   billingdomain.CustomerRepository
	PayLink     *paylink.Service
	Invoices    *invoiceservice.Service
	Renderer    *render.Renderer
	CustomerSvc *customer.Service     `optional:"true"`
	Audit       *auditservice.Service `optional:"true"`
}

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	engine      *gin.Engine
	ledger      billingdomain.Ledger
	advance     billingdomain.AdvanceBalance
	customers   billingdomain.CustomerRepository
	payLink     *paylink.Service
	invoices    *invoiceservice.Service
	renderer    *render.Renderer
	customerSvc *customer.Service
	audit       *auditservice.Service
	limiter     *ratelimit.Limiter
}

func NewServer(p Params) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		engine:      gin.New(),
		ledger:      p.Ledger,
		advance:     p.Advance,
		customers:   p.Customers,
		payLink:     p.PayLink,
		invoices:    p.Invoices,
		renderer:    p.Renderer,
		customerSvc: p.CustomerSvc,
		audit:       p.Audit,
		limiter:     ratelimit.New(p.Redis, p.Log, p.Cfg.PayRateLimit, p.Cfg.PayRateLimitWindow),
	}

	s.engine.Use(gin.Recovery(), s.requestLog())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))

	// Unauthenticated payment links.
	pay := s.engine.Group("/pay", s.payRateLimit())
	pay.GET("/:token", s.ResolvePaymentLink)
	pay.POST("/:token", s.SubmitPaymentByLink)

	// Staff/back-office surface.
	api := s.engine.Group("/api", s.APIKeyRequired())
	api.POST("/bills/:id/payment-link", s.IssuePaymentLink)
	api.POST("/bills/:id/payments", s.ApplyBillPayment)
	api.GET("/bills/:id", s.GetBill)
	api.GET("/customers/:id/balance", s.GetAdvanceBalance)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.GET("/invoices/:id/pdf", s.GetInvoicePDF)
	if s.customerSvc != nil {
		api.POST("/customers", s.RegisterCustomer)
		api.GET("/customers", s.ListCustomers)
		api.POST("/customers/:id/status", s.SetCustomerStatus)
	}
	if s.audit != nil {
		api.GET("/audit", s.ListAuditLog)
		api.GET("/audit/export", s.ExportAuditLog)
	}

	return s
}

// record appends to the audit trail when the audit service is wired.
func (s *Server) record(c *gin.Context, action, entity, entityID string, detail any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(c.Request.Context(), action, entity, entityID, detail)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) payRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func Start(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
