package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackinsure/rainyday/internal/core/domain"
	"github.com/blackinsure/rainyday/internal/transport/http/middleware"
	"github.com/blackinsure/rainyday/internal/usecase"
)

// PolicyAccessor serves policy lookups and payout-address updates.
type PolicyAccessor interface {
	GetPolicy(ctx context.Context, policyHolderID string) (*domain.Policy, error)
	SetEthereumAddress(ctx context.Context, policyID, address string) error
	FacebookLogin(ctx context.Context, policyHolderID string) (usecase.FacebookLoginResult, error)
}

// SecuredHandler exposes the token-gated endpoints.
type SecuredHandler struct {
	policies PolicyAccessor
	logger   *zap.Logger
}

// NewSecuredHandler builds the secured endpoint handler.
func NewSecuredHandler(policies PolicyAccessor, log *zap.Logger) *SecuredHandler {
	return &SecuredHandler{policies: policies, logger: log}
}

var getPolicyErrorCases = []ErrorCase{
	{Err: usecase.ErrHolderNotFound, Status: http.StatusNotFound, Message: "policy holder not found"},
	{Err: usecase.ErrPolicyNotFound, Status: http.StatusNotFound, Message: "policy not found"},
}

// GetPolicy returns the policy owned by the holder named in the body.
func (h *SecuredHandler) GetPolicy(c *gin.Context) {
	var req GetPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid policy lookup payload"))
		return
	}

	if strings.TrimSpace(req.PolicyHolderID) == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "policy holder id is required"))
		return
	}

	policy, err := h.policies.GetPolicy(c.Request.Context(), req.PolicyHolderID)
	if err != nil {
		RespondWithMappedError(c, err, getPolicyErrorCases,
			http.StatusInternalServerError, "could not load policy")
		return
	}

	c.JSON(http.StatusOK, NewPolicyResponse(policy, req.PolicyHolderID))
}

var setAddressErrorCases = []ErrorCase{
	{Err: usecase.ErrBlankPolicyID, Status: http.StatusBadRequest, Message: "policy id is required"},
	{Err: usecase.ErrInvalidEthereumAddress, Status: http.StatusBadRequest, Message: "invalid ethereum address"},
	{Err: usecase.ErrPolicyNotFound, Status: http.StatusNotFound, Message: "policy not found"},
}

// SetEthereumAddress binds a payout address to a policy.
func (h *SecuredHandler) SetEthereumAddress(c *gin.Context) {
	var req SetEthereumAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid address payload"))
		return
	}

	if err := h.policies.SetEthereumAddress(c.Request.Context(), req.PolicyID, req.EthereumAddress); err != nil {
		RespondWithMappedError(c, err, setAddressErrorCases,
			http.StatusInternalServerError, "could not set ethereum address")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// FacebookLogin resolves the authenticated social identity to a policy.
// Absence of a policy is a normal first-visit outcome, not an error.
func (h *SecuredHandler) FacebookLogin(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	result, err := h.policies.FacebookLogin(c.Request.Context(), claims.PolicyHolderID)
	if err != nil {
		h.logger.Error("facebook login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not resolve social login"))
		return
	}

	if !result.HasPolicy {
		resp := FacebookLoginResponse{
			HasPolicy:      false,
			PolicyHolderID: claims.PolicyHolderID,
			Name:           claims.Name,
		}
		if result.Holder != nil {
			resp.AccountID = result.Holder.SocialAccountID()
			resp.Name = result.Holder.DisplayName()
			resp.Email = result.Holder.SocialEmail()
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.Header("Authorization", result.Token)
	policyResp := NewPolicyResponse(result.Policy, result.Holder.PolicyHolderID)
	c.JSON(http.StatusOK, FacebookLoginResponse{
		HasPolicy:      true,
		AccountID:      result.Holder.SocialAccountID(),
		PolicyHolderID: result.Holder.PolicyHolderID,
		Name:           result.Holder.DisplayName(),
		Email:          result.Holder.SocialEmail(),
		Policy:         &policyResp,
	})
}
