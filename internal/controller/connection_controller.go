package controller

import (
	"errors"

	"formgate/internal/middleware"
	"formgate/internal/service"
	"formgate/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ConnectionRequest struct {
	Slug         string `json:"slug" binding:"required"`
	Issuer       string `json:"issuer" binding:"required,url"`
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret"`
	Scopes       string `json:"scopes"`
	RedirectPath string `json:"redirect_path"`
	Enabled      *bool  `json:"enabled"`
	WorkspaceID  string `json:"workspace_id"`
}

type ConnectionController struct {
	Router      *gin.RouterGroup
	Connections *service.ConnectionService
}

func NewConnectionController(router *gin.RouterGroup, connections *service.ConnectionService) *ConnectionController {
	return &ConnectionController{
		Router:      router,
		Connections: connections,
	}
}

func (controller *ConnectionController) SetupRoutes() {
	group := controller.Router.Group("/connections")
	group.Use(controller.requireAuth)
	group.GET("", controller.listHandler)
	group.POST("", controller.createHandler)
	group.PUT("/:slug", controller.updateHandler)
	group.DELETE("/:slug", controller.deleteHandler)
}

func (controller *ConnectionController) requireAuth(c *gin.Context) {
	if !middleware.GetUserContext(c).IsLoggedIn {
		c.AbortWithStatusJSON(401, gin.H{
			"status":  401,
			"message": "Unauthorized",
		})
		return
	}
	c.Next()
}

func (controller *ConnectionController) listHandler(c *gin.Context) {
	connections, err := controller.Connections.List(c.Request.Context(), c.Query("workspace_id"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list identity connections")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	// Never return secret ciphertext
	for i := range connections {
		connections[i].ClientSecret = ""
	}

	c.JSON(200, gin.H{
		"connections": connections,
	})
}

func (controller *ConnectionController) createHandler(c *gin.Context) {
	var req ConnectionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind connection request")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	if req.ClientSecret == "" {
		c.JSON(422, gin.H{
			"status":  422,
			"message": "A client secret is required",
		})
		return
	}

	connection, err := controller.Connections.Create(c.Request.Context(), controller.toInput(req))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create identity connection")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	connection.ClientSecret = ""
	c.JSON(201, connection)
}

func (controller *ConnectionController) updateHandler(c *gin.Context) {
	var req ConnectionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind connection request")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	connection, err := controller.Connections.Update(c.Request.Context(), c.Param("slug"), controller.toInput(req))
	if err != nil {
		if errors.Is(err, service.ErrConnectionNotFound) {
			c.JSON(404, gin.H{
				"status":  404,
				"message": "Not Found",
			})
			return
		}
		log.Error().Err(err).Msg("Failed to update identity connection")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	connection.ClientSecret = ""
	c.JSON(200, connection)
}

func (controller *ConnectionController) deleteHandler(c *gin.Context) {
	err := controller.Connections.Delete(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrConnectionNotFound) {
			c.JSON(404, gin.H{
				"status":  404,
				"message": "Not Found",
			})
			return
		}
		log.Error().Err(err).Msg("Failed to delete identity connection")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  200,
		"message": "OK",
	})
}

func (controller *ConnectionController) toInput(req ConnectionRequest) service.ConnectionInput {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	return service.ConnectionInput{
		Slug:         req.Slug,
		Issuer:       req.Issuer,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Scopes:       utils.ParseCommaString(req.Scopes),
		RedirectPath: req.RedirectPath,
		Enabled:      enabled,
		WorkspaceID:  req.WorkspaceID,
	}
}
