// Package rest exposes the credential flows over HTTP and maps the typed
// service errors to transport status codes. The services themselves stay
// transport-agnostic.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitplan/fitplan/internal/logging"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/services"
)

type Server struct {
	address     string
	engine      *gin.Engine
	logger      logging.Logger
	auth        *services.AuthService
	users       *services.UserService
	invitations *services.InvitationService
	jwtSecret   []byte
}

func NewServer(address string, logger logging.Logger, auth *services.AuthService, users *services.UserService, invitations *services.InvitationService, secretKey string) *Server {
	s := &Server{
		address:     address,
		logger:      logger.With("module", "rest_server"),
		auth:        auth,
		users:       users,
		invitations: invitations,
		jwtSecret:   []byte(secretKey),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.registerRoutes(engine)
	s.engine = engine

	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", s.login)
		authGroup.POST("/register", s.register)
		authGroup.POST("/logout", s.logout)
		authGroup.POST("/forgot-password", s.forgotPassword)
		authGroup.POST("/reset-password", s.resetPassword)
		authGroup.POST("/refresh", s.refresh)

		// admin surface: the role check lives here at the boundary,
		// the services expose role as plain data
		admin := authGroup.Group("", s.requireRole(models.RoleAdmin))
		admin.POST("/invite", s.invite)
		admin.GET("/invitations", s.listInvitations)
		admin.GET("/invitations/:id", s.getInvitation)
	}

	usersGroup := r.Group("/users", s.requireRole(models.RoleAdmin))
	{
		usersGroup.GET("", s.listUsers)
		usersGroup.GET("/:id", s.getUser)
		usersGroup.DELETE("/:id", s.deleteUser)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
