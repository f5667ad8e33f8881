package router

import (
	"time"

	"labcaixa/internal/config"
	"labcaixa/internal/handler"
	"labcaixa/internal/infra"
	"labcaixa/internal/middleware"
	"labcaixa/internal/repository"
	"labcaixa/internal/service"
	"labcaixa/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	recordRepo := repository.NewRecordRepository(db)
	envelopeRepo := repository.NewEnvelopeRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	resolutionRepo := repository.NewResolutionRepository(db)
	feeRepo := repository.NewFeeRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	splitter := service.NewSplitter(service.NewKeywordClassifier(cfg.SelfPayKeywordList()))
	ingestSvc := service.NewIngestService(recordRepo, ledgerRepo, splitter)
	selectionSvc := service.NewSelectionService(recordRepo, feeRepo,
		decimal.NewFromFloat(cfg.CardFeeDefaultRate))

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	closingSvc := service.NewClosingService(recordRepo, envelopeRepo, dispatcher,
		infra.GenerateLabelPDF, cfg.LabelStoragePath)
	reconciliationSvc := service.NewReconciliationService(recordRepo, ledgerRepo, resolutionRepo)
	reviewSvc := service.NewReviewService(envelopeRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	recordsH := handler.NewRecordHandler(ingestSvc, selectionSvc)
	ledgerH := handler.NewLedgerHandler(ingestSvc)
	closingH := handler.NewClosingHandler(closingSvc)
	reconciliationH := handler.NewReconciliationHandler(reconciliationSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(
		middleware.RoleAtendente, middleware.RoleSupervisor, middleware.RoleAdministrador)
	supervisorUp := middleware.RequireRole(
		middleware.RoleSupervisor, middleware.RoleAdministrador)

	v1 := r.Group("/v1", jwtMW)
	{
		records := v1.Group("/records")
		{
			records.POST("/import", supervisorUp, recordsH.Import)
			records.GET("/eligible", anyRole, recordsH.Eligible)
			records.POST("/totals", anyRole, recordsH.Totals)
		}

		envelopes := v1.Group("/envelopes")
		{
			envelopes.POST("/seal", anyRole, closingH.Seal)
			envelopes.POST("/:id/label", anyRole, closingH.IssueLabel)
			envelopes.GET("/:id", anyRole, closingH.Get)
			envelopes.POST("/:id/notes", anyRole, closingH.AddNote)
		}

		review := v1.Group("/review", supervisorUp)
		{
			review.GET("/envelopes", reviewH.List)
			review.GET("/stats", reviewH.Stats)
			review.POST("/envelopes/:id", reviewH.Review)
			review.POST("/bulk", reviewH.Bulk)
		}

		reconciliation := v1.Group("/reconciliation", supervisorUp)
		{
			reconciliation.GET("", reconciliationH.Reconcile)
			reconciliation.POST("/link", reconciliationH.Link)
			reconciliation.POST("/resolutions", reconciliationH.LogResolution)
			reconciliation.GET("/resolutions", reconciliationH.ListResolutions)
		}

		v1.POST("/ledger/import", supervisorUp, ledgerH.Import)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
