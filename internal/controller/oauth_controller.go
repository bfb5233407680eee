package controller

import (
	"errors"
	"net/http"

	"formgate/internal/config"
	"formgate/internal/middleware"
	"formgate/internal/service"
	"formgate/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// genericAuthError is the uniform client-facing message for protocol
// failures. Provider and internal detail stays in the logs.
const genericAuthError = "Failed to authenticate with the provider. Please try again."

type OAuthRequest struct {
	Provider string `uri:"provider" binding:"required"`
}

type OAuthController struct {
	Router     *gin.RouterGroup
	Broker     *service.OAuthBrokerService
	Completion *service.CompletionService
	State      *service.StateService
}

func NewOAuthController(router *gin.RouterGroup, broker *service.OAuthBrokerService, completion *service.CompletionService, state *service.StateService) *OAuthController {
	return &OAuthController{
		Router:     router,
		Broker:     broker,
		Completion: completion,
		State:      state,
	}
}

func (controller *OAuthController) SetupRoutes() {
	oauthGroup := controller.Router.Group("/oauth")
	oauthGroup.GET("/url/:provider", controller.oauthURLHandler)
	oauthGroup.GET("/callback/:provider", controller.oauthCallbackHandler)
	oauthGroup.POST("/widget/:provider", controller.oauthWidgetHandler)
}

func (controller *OAuthController) oauthURLHandler(c *gin.Context) {
	var req OAuthRequest

	err := c.BindUri(&req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to bind URI")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	driver, err := controller.Broker.GetDriver(c.Request.Context(), req.Provider)
	if err != nil {
		controller.respondError(c, err)
		return
	}

	intent := c.DefaultQuery("intent", config.IntentAuth)
	scopes := utils.ParseCommaString(c.Query("scopes"))

	state := c.Query("state")
	if state == "" {
		state = utils.GenerateState()
	}

	if intent == config.IntentIntegration {
		pending := config.PendingOAuthContext{
			Intention:    c.Query("intention"),
			AutoClose:    c.Query("auto_close") == "true",
			InvitedEmail: c.Query("invited_email"),
			InviteToken:  c.Query("invite_token"),
			UTMData:      c.Query("utm_data"),
		}

		caller := middleware.GetUserContext(c)
		if caller.IsLoggedIn {
			controller.State.PutContext(caller.UserID, pending)
		} else {
			controller.State.PutContextForState(state, pending)
		}
	}

	url, err := driver.GetRedirectURL(c.Request.Context(), config.RedirectOptions{
		Scopes: scopes,
		State:  state,
	})

	if err != nil {
		log.Error().Err(err).Str("provider", req.Provider).Msg("Failed to build redirect URL")
		controller.respondError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"status":  200,
		"message": "OK",
		"url":     url,
	})
}

func (controller *OAuthController) oauthCallbackHandler(c *gin.Context) {
	var req OAuthRequest

	err := c.BindUri(&req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to bind URI")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	state := c.Query("state")

	if state == "" || !controller.Broker.ValidateState(state) {
		log.Warn().Str("provider", req.Provider).Msg("Callback state missing or unknown")
		c.JSON(400, gin.H{
			"status":  400,
			"message": genericAuthError,
		})
		return
	}

	driver, err := controller.Broker.GetDriver(c.Request.Context(), req.Provider)
	if err != nil {
		controller.respondError(c, err)
		return
	}

	identity, err := driver.GetUser(c.Request.Context(), config.CallbackData{
		Code:  c.Query("code"),
		State: state,
	})

	if err != nil {
		log.Error().Err(err).Str("provider", req.Provider).Msg("Failed to get user from OAuth provider")
		controller.respondError(c, err)
		return
	}

	controller.complete(c, service.FlowContext{
		Provider: req.Provider,
		State:    state,
		Caller:   middleware.GetUserContext(c),
	}, c.DefaultQuery("intent", config.IntentAuth), identity)
}

func (controller *OAuthController) oauthWidgetHandler(c *gin.Context) {
	var req OAuthRequest

	err := c.BindUri(&req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to bind URI")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	var payload map[string]string

	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Error().Err(err).Msg("Failed to bind widget payload")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	widget, err := controller.Broker.GetWidgetDriver(req.Provider)
	if err != nil {
		controller.respondError(c, err)
		return
	}

	// Signature check happens before any authenticated state is touched
	identity, err := widget.VerifyWidgetPayload(payload)
	if err != nil {
		log.Warn().Err(err).Str("provider", req.Provider).Msg("Widget payload rejected")
		controller.respondError(c, err)
		return
	}

	controller.complete(c, service.FlowContext{
		Provider: req.Provider,
		Caller:   middleware.GetUserContext(c),
	}, config.IntentWidget, identity)
}

func (controller *OAuthController) complete(c *gin.Context, flow service.FlowContext, intent string, identity config.Identity) {
	strategy := controller.Completion.StrategyFor(intent)

	result, err := strategy.Execute(c.Request.Context(), flow, identity)
	if err != nil {
		log.Error().Err(err).Str("provider", flow.Provider).Str("intent", intent).Msg("Completion strategy failed")
		controller.respondError(c, err)
		return
	}

	if result.Session != nil {
		c.JSON(200, result.Session)
		return
	}

	c.JSON(200, gin.H{
		"provider":  result.Provider,
		"autoClose": result.AutoClose,
		"intention": result.Intention,
	})
}

func (controller *OAuthController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProviderNotFound):
		c.JSON(404, gin.H{
			"status":  404,
			"message": "Not Found",
		})
	case errors.Is(err, service.ErrUnauthenticatedForLink):
		c.JSON(401, gin.H{
			"status":  401,
			"message": service.ErrUnauthenticatedForLink.Error(),
		})
	case errors.Is(err, service.ErrAlreadyRegistered):
		c.JSON(409, gin.H{
			"status":  409,
			"message": service.ErrAlreadyRegistered.Error(),
		})
	case errors.Is(err, service.ErrRegistrationDisabled):
		c.JSON(422, gin.H{
			"status":  422,
			"message": service.ErrRegistrationDisabled.Error(),
		})
	case errors.Is(err, service.ErrInvalidNonce), errors.Is(err, service.ErrIdentityResolution), errors.Is(err, service.ErrDiscovery):
		c.JSON(400, gin.H{
			"status":  400,
			"message": genericAuthError,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
	}
}
