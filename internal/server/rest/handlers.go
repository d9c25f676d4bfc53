package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitplan/fitplan/internal/common"
	"github.com/fitplan/fitplan/internal/server/models"
	"github.com/fitplan/fitplan/internal/server/services"
)

// forgotPasswordMessage is returned for every forgot-password request,
// existing account or not.
const forgotPasswordMessage = "If the account exists, a reset link has been sent"

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=3"`
	Phone string `json:"phone" binding:"required,min=6"`
	IsNew bool   `json:"is_new"`
	Role  string `json:"role" binding:"required,oneof=user admin"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,min=3"`
	Phone    string `json:"phone" binding:"required"`
	IsNew    bool   `json:"is_new"`
	Role     string `json:"role"`
	Token    string `json:"token" binding:"required"`
}

type logoutRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionResponse struct {
	User         models.UserSummary `json:"user"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token,omitempty"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (s *Server) invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := s.auth.Invite(c.Request.Context(), req.Email, req.Name, req.Phone, req.IsNew, req.Role)
	if err != nil {
		// the invitation row survives a delivery failure; hand the id
		// back so the caller can retry delivery
		if errors.Is(err, common.ErrNotificationFailed) && inv != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "invitation_id": inv.ID})
			return
		}
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invitation_id": inv.ID})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		IsNew:    req.IsNew,
		Role:     req.Role,
		Token:    req.Token,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (s *Server) logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.auth.Logout(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// always the same answer, regardless of account existence
	_ = s.auth.ForgotPassword(c.Request.Context(), req.Email)

	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Email, req.Token, req.Password); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

func (s *Server) listInvitations(c *gin.Context) {
	result, err := s.invitations.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getInvitation(c *gin.Context) {
	inv, err := s.invitations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

func (s *Server) listUsers(c *gin.Context) {
	result, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// respondError maps the typed service errors to status codes. Clients get
// the sentinel text only; internals are logged, not leaked.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidOrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidInvitation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrNotificationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
