package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/KevinKickass/OpenSequenceCore/internal/i18n"
	"github.com/KevinKickass/OpenSequenceCore/internal/interfaces"
	"github.com/KevinKickass/OpenSequenceCore/internal/storage"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Server struct {
	router      *gin.Engine
	lm          interfaces.LifecycleManager
	logger      *zap.Logger
	server      *http.Server
	wsHub       *websocket.Hub
	authService *auth.AuthService

	// identity of the workspace document in the store
	mu      sync.Mutex
	current documentRef
}

type documentRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, wsHub *websocket.Hub, authService *auth.AuthService) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:      router,
		lm:          lm,
		logger:      logger,
		wsHub:       wsHub,
		authService: authService,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/auth/login", s.login)

		// Auth via first message
		v1.GET("/ws/live", s.wsLiveConnection)

		api := v1.Group("")
		api.Use(s.authService.AuthMiddleware())

		view := auth.RequirePermission(auth.PermView)
		edit := auth.RequirePermission(auth.PermEdit)
		admin := auth.RequirePermission(auth.PermAdmin)

		api.GET("/auth/me", view, s.getCurrentUser)
		api.GET("/system/status", view, s.getSystemStatus)
		api.GET("/ws/status", view, s.wsStatus)

		// ==================== DOCUMENT ====================
		api.GET("/document", view, s.getDocument)
		api.PUT("/document", edit, s.putDocument)
		api.GET("/document/validation", view, s.validateDocument)

		// ==================== IO ====================
		api.GET("/io", view, s.listIO)
		api.POST("/io", edit, s.addIO)
		api.PATCH("/io/:index", edit, s.updateIO)
		api.DELETE("/io/:index", edit, s.deleteIO)

		// ==================== SUBPROGRAMS ====================
		api.GET("/addresses", view, s.listAddresses)
		subprograms := api.Group("/subprograms")
		{
			subprograms.GET("", view, s.listSubprograms)
			subprograms.POST("", edit, s.addSubprogram)
			subprograms.PATCH("/:sp", edit, s.updateSubprogram)
			subprograms.DELETE("/:sp", edit, s.deleteSubprogram)

			subprograms.POST("/:sp/steps", edit, s.addStep)
			subprograms.PATCH("/:sp/steps/:step", edit, s.updateStep)
			subprograms.DELETE("/:sp/steps/:step", edit, s.deleteStep)

			subprograms.POST("/:sp/steps/:step/conditions/:frame", edit, s.addStepCondition)
			subprograms.PATCH("/:sp/steps/:step/conditions/:frame/:cond", edit, s.updateStepCondition)
			subprograms.DELETE("/:sp/steps/:step/conditions/:frame/:cond", edit, s.deleteStepCondition)
		}

		// ==================== RULES ====================
		rules := api.Group("/rules")
		{
			rules.GET("", view, s.listRules)
			rules.POST("", edit, s.addRule)
			rules.POST("/sort", edit, s.sortRules)
			rules.PATCH("/:rule", edit, s.updateRule)
			rules.DELETE("/:rule", edit, s.deleteRule)

			rules.POST("/:rule/conditions/:frame", edit, s.addRuleCondition)
			rules.PATCH("/:rule/conditions/:frame/:cond", edit, s.updateRuleCondition)
			rules.DELETE("/:rule/conditions/:frame/:cond", edit, s.deleteRuleCondition)
		}

		// ==================== CURSOR ====================
		api.GET("/cursor", view, s.getCursor)
		api.PUT("/cursor", edit, s.putCursor)
		api.POST("/cursor/back", edit, s.cursorBack)

		// ==================== EXPORT ====================
		api.GET("/export/preview", view, s.previewExport)
		api.POST("/export", edit, s.exportTable)

		// ==================== STORED DOCUMENTS ====================
		documents := api.Group("/documents")
		{
			documents.GET("", view, s.listDocuments)
			documents.POST("", edit, s.saveDocument)
			documents.POST("/:id/load", edit, s.loadDocument)
			documents.DELETE("/:id", admin, s.deleteDocument)
		}

		// ==================== LANGUAGES ====================
		api.GET("/languages", view, s.listLanguages)
		api.PUT("/languages/active", admin, s.setLanguage)
	}
}

func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// GET /api/v1/system/status
func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.GetCurrentStatus())
}

func (s *Server) currentRef() documentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Server) setCurrentRef(ref documentRef) {
	s.mu.Lock()
	s.current = ref
	s.mu.Unlock()
}

var errBadParam = errors.New("bad path parameter")

func indexParam(c *gin.Context, name string) (int, error) {
	i, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, c.Param(name))
	}
	return i, nil
}

func frameParam(c *gin.Context) (document.FrameType, error) {
	f, err := document.ParseFrame(c.Param("frame"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadParam, err)
	}
	return f, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam),
		errors.Is(err, document.ErrAddressOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, document.ErrIndexOutOfRange),
		errors.Is(err, document.ErrEmptyBucket),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, i18n.ErrUnknownLanguage):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoSelection):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err with a status derived from its sentinel.
func respondError(c *gin.Context, area types.Area, message string, err error) {
	status := statusFor(err)
	c.JSON(status, types.NewStatusError(area, status, message, err.Error()))
}

func badRequest(c *gin.Context, area types.Area, message string, err error) {
	c.JSON(http.StatusBadRequest, types.NewStatusError(area, http.StatusBadRequest, message, err.Error()))
}
