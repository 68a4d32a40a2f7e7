package controllers

import (
	"errors"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/internal/middlewares"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// GoogleOAuthController handles the consent and token-lifecycle endpoints of
// the Google Business Profile connection.
type GoogleOAuthController struct {
	oauthManager domain.OAuthManager
	tokenManager domain.TokenManager
}

type GoogleOAuthControllerDependencies struct {
	OAuthManager domain.OAuthManager
	TokenManager domain.TokenManager
}

func NewGoogleOAuthController(deps GoogleOAuthControllerDependencies) *GoogleOAuthController {
	return &GoogleOAuthController{
		oauthManager: deps.OAuthManager,
		tokenManager: deps.TokenManager,
	}
}

// Connect builds the provider authorization URL for the caller to open.
func (c *GoogleOAuthController) Connect(ctx fiber.Ctx) error {
	authorization, err := c.oauthManager.BuildAuthorizationURL(ctx.RequestCtx(), middlewares.AccountID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(authorization)
}

type callbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Callback receives the authorization code the browser flow produced and
// finishes the exchange.
func (c *GoogleOAuthController) Callback(ctx fiber.Ctx) error {
	var req callbackRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Authorization code not provided")
	}

	if err := c.oauthManager.ExchangeCode(ctx.RequestCtx(), middlewares.AccountID(ctx), req.Code, req.State); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "OAuth tokens stored successfully",
	})
}

// RefreshToken ensures the stored access token is valid for the look-ahead
// window, refreshing it when needed.
func (c *GoogleOAuthController) RefreshToken(ctx fiber.Ctx) error {
	state, err := c.tokenManager.EnsureFreshToken(ctx.RequestCtx(), middlewares.AccountID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(state)
}

// Disconnect removes the stored credential and business selection.
func (c *GoogleOAuthController) Disconnect(ctx fiber.Ctx) error {
	if err := c.oauthManager.Disconnect(ctx.RequestCtx(), middlewares.AccountID(ctx)); err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true})
}

// errorResponse maps the domain error taxonomy onto HTTP statuses so the
// dashboard can distinguish "retry" from "reconnect".
func errorResponse(ctx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var (
		exchangeErr *domain.TokenExchangeError
		refreshErr  *domain.TokenRefreshError
		providerErr *googlebusiness.ProviderAPIError
	)

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrReauthorizationRequired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrConfiguration):
		status = fiber.StatusInternalServerError
	case errors.Is(err, domain.ErrStateMismatch):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, domain.ErrNoBusinessSelected):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, domain.ErrNotReplyCapable):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrReviewNotFound), errors.Is(err, domain.ErrCredentialNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &exchangeErr), errors.As(err, &refreshErr), errors.As(err, &providerErr):
		status = fiber.StatusBadGateway
	}

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.Path()).Msg("Request failed")
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
