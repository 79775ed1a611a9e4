package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/usecase"
)

// Authenticator performs password logins.
type Authenticator interface {
	Login(ctx context.Context, email, password, captchaToken string) (usecase.LoginResult, error)
}

// PolicyEnroller validates and creates policy submissions.
type PolicyEnroller interface {
	CreatePolicy(ctx context.Context, in usecase.NewPolicyInput) (usecase.EnrollmentResult, error)
}

// PolicyConfirmer resolves emailed confirmation links.
type PolicyConfirmer interface {
	Confirm(ctx context.Context, confirmationID string) (usecase.ConfirmationResult, error)
}

// PublicHandler exposes the unauthenticated endpoints: login, enrollment,
// confirmation links, and the application shell.
type PublicHandler struct {
	auth          Authenticator
	enrollment    PolicyEnroller
	confirmations PolicyConfirmer
	webDir        string
	logger        *zap.Logger
}

// NewPublicHandler builds the public endpoint handler. webDir is the
// directory holding the single-page application shell.
func NewPublicHandler(
	auth Authenticator,
	enrollment PolicyEnroller,
	confirmations PolicyConfirmer,
	webDir string,
	log *zap.Logger,
) *PublicHandler {
	return &PublicHandler{
		auth:          auth,
		enrollment:    enrollment,
		confirmations: confirmations,
		webDir:        webDir,
		logger:        log,
	}
}

// Login authenticates email and password behind a captcha gate.
func (h *PublicHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.EmailAddress, req.Password, req.RecaptchaToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCaptchaTokenMissing):
			c.JSON(http.StatusBadRequest, LoginFailureResponse{
				ExistingAccount: false,
				Error:           true,
				Message:         "captcha token is required",
			})
		case errors.Is(err, usecase.ErrCaptchaFailed):
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "captcha verification failed"))
		case errors.Is(err, usecase.ErrHolderNotFound):
			c.JSON(http.StatusBadRequest, LoginFailureResponse{
				ExistingAccount: false,
				Error:           true,
				Message:         "account not found",
			})
		case errors.Is(err, usecase.ErrIncorrectPassword):
			c.JSON(http.StatusBadRequest, LoginFailureResponse{
				ExistingAccount: true,
				Error:           true,
				Message:         "incorrect password",
			})
		case errors.Is(err, usecase.ErrPolicyNotFound):
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "no policy found for account"))
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		}
		return
	}

	c.Header("Authorization", result.Token)
	c.JSON(http.StatusOK, LoginSuccessResponse{
		ExistingAccount: true,
		Policy:          NewPolicyResponse(result.Policy, result.Holder.PolicyHolderID),
	})
}

var newPolicyErrorCases = []ErrorCase{
	{Err: usecase.ErrBlankCoveredCity, Status: http.StatusBadRequest, Message: "blank covered city"},
	{Err: usecase.ErrMissingSocialIdentity, Status: http.StatusBadRequest, Message: "social identity with a name is required"},
	{Err: usecase.ErrHolderNotFound, Status: http.StatusBadRequest, Message: "policy holder not found"},
	{Err: usecase.ErrAlreadyAssociated, Status: http.StatusBadRequest, Message: "policy holder is already associated with a policy"},
	{Err: usecase.ErrEmailAlreadyAssociated, Status: http.StatusBadRequest, Message: "email is already associated with a policy holder"},
	{Err: usecase.ErrBlankEmail, Status: http.StatusBadRequest, Message: "email address is required"},
	{Err: usecase.ErrBlankPassword, Status: http.StatusBadRequest, Message: "password is required"},
	{Err: usecase.ErrValidationFailed, Status: http.StatusBadRequest, Message: "failed while validating inputs"},
}

// CreateNewPolicy enrolls a holder and creates their policy.
func (h *PublicHandler) CreateNewPolicy(c *gin.Context) {
	var req NewPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid policy payload"))
		return
	}

	input := usecase.NewPolicyInput{
		PolicyHolderID: req.PolicyHolder.PolicyHolderID,
		CoveredCity: domain.CoveredCity{
			Name:      req.CoveredCity.Name,
			Latitude:  req.CoveredCity.Latitude,
			Longitude: req.CoveredCity.Longitude,
		},
		Email:    req.PolicyHolder.EmailAddress,
		Password: req.PolicyHolder.Password,
		Facebook: req.PolicyHolder.Facebook.toDomain(),
		Google:   req.PolicyHolder.Google.toDomain(),
		LinkHost: c.Request.Host,
	}

	result, err := h.enrollment.CreatePolicy(c.Request.Context(), input)
	if err != nil {
		h.logger.Info("policy enrollment rejected", zap.Error(err))
		RespondWithMappedError(c, err, newPolicyErrorCases,
			http.StatusInternalServerError, "could not create policy")
		return
	}

	c.Header("Authorization", result.Token)
	c.JSON(http.StatusOK, NewPolicyResponse(result.Policy, result.Holder.PolicyHolderID))
}

// Confirm resolves a confirmation link and serves the application shell. A
// first-time confirmation also sets the session token as cookie and header.
func (h *PublicHandler) Confirm(c *gin.Context) {
	confirmationID := c.Param("confirmationID")

	result, err := h.confirmations.Confirm(c.Request.Context(), confirmationID)
	if err != nil {
		h.logger.Error("confirmation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not confirm policy"))
		return
	}

	if result.Outcome == usecase.ConfirmationCompleted {
		c.SetCookie("jwt", result.Token, 0, "/", "", false, false)
		c.Header("Authorization", result.Token)
	}

	h.ServeShell(c)
}

// ServeShell serves the single-page application entry point.
func (h *PublicHandler) ServeShell(c *gin.Context) {
	c.File(filepath.Join(h.webDir, "index.html"))
}
