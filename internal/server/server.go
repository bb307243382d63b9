package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c3s/memberadmin/internal/archive"
	"github.com/c3s/memberadmin/internal/assembly"
	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	"github.com/c3s/memberadmin/internal/clock"
	"github.com/c3s/memberadmin/internal/config"
	"github.com/c3s/memberadmin/internal/dues"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	"github.com/c3s/memberadmin/internal/member"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/c3s/memberadmin/internal/migration"
	"github.com/c3s/memberadmin/internal/observability"
	obsmiddleware "github.com/c3s/memberadmin/internal/observability/logger"
	obsmetrics "github.com/c3s/memberadmin/internal/observability/metrics"
	"github.com/c3s/memberadmin/internal/providers/email"
	"github.com/c3s/memberadmin/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	migration.Module,
	clock.Module,
	email.Module,
	pdf.Module,
	member.Module,
	dues.Module,
	archive.Module,
	assembly.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	memberSvc   memberdomain.Service
	duesSvc     duesdomain.Service
	assemblySvc assemblydomain.Service
	archiveSvc  archive.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	MemberSvc   memberdomain.Service
	DuesSvc     duesdomain.Service
	AssemblySvc assemblydomain.Service
	ArchiveSvc  archive.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		memberSvc:   p.MemberSvc,
		duesSvc:     p.DuesSvc,
		assemblySvc: p.AssemblySvc,
		archiveSvc:  p.ArchiveSvc,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Members --------
	api.POST("/members", s.CreateApplication)
	api.GET("/members/:id", s.GetMember)
	api.POST("/members/:id/accept", s.AcceptMember)
	api.DELETE("/members/:id", s.DeleteApplicant)

	// -------- Dues --------
	api.GET("/dues/:year/invoices", s.ListDuesInvoices)
	api.POST("/dues/:year/batch", s.SendDuesBatch)
	api.POST("/dues/:year/members/:id/invoice", s.CreateDuesInvoice)
	api.POST("/dues/:year/members/:id/reduction", s.ReduceDues)
	api.POST("/dues/:year/members/:id/payment", s.RecordPaymentNotice)

	// -------- Archive --------
	api.GET("/archive/stats", s.ArchiveStats)
	api.POST("/archive/:year", s.ArchiveYear)

	// -------- Assemblies --------
	api.GET("/assemblies", s.ListAssemblies)
	api.POST("/assemblies", s.CreateAssembly)
	api.GET("/assemblies/:id", s.GetAssembly)
	api.PATCH("/assemblies/:id", s.UpdateAssembly)
	api.POST("/assemblies/:id/members/:memberID/invite", s.InviteMember)
}

func (s *Server) registerPublicRoutes() {
	// Tokenized download link sent in dues emails; no session auth.
	s.engine.GET("/dues/:year/invoices/:email/:code/:no", s.DownloadInvoice)
}
