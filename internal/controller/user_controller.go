package controller

import (
	"formgate/internal/middleware"
	"formgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserController struct {
	Router *gin.RouterGroup
	Auth   *service.AuthService
}

func NewUserController(router *gin.RouterGroup, auth *service.AuthService) *UserController {
	return &UserController{
		Router: router,
		Auth:   auth,
	}
}

func (controller *UserController) SetupRoutes() {
	userGroup := controller.Router.Group("/user")
	userGroup.POST("/login", controller.loginHandler)
	userGroup.GET("/me", controller.meHandler)
}

func (controller *UserController) loginHandler(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Failed to bind login request")
		c.JSON(400, gin.H{
			"status":  400,
			"message": "Bad Request",
		})
		return
	}

	user, found, err := controller.Auth.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up user")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	if !found || !controller.Auth.CheckPassword(user, req.Password) {
		log.Warn().Str("email", req.Email).Msg("Invalid login attempt")
		c.JSON(401, gin.H{
			"status":  401,
			"message": "Invalid email or password",
		})
		return
	}

	session, err := controller.Auth.IssueSessionToken(user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		c.JSON(500, gin.H{
			"status":  500,
			"message": "Internal Server Error",
		})
		return
	}

	c.JSON(200, session)
}

func (controller *UserController) meHandler(c *gin.Context) {
	caller := middleware.GetUserContext(c)

	if !caller.IsLoggedIn {
		c.JSON(401, gin.H{
			"status":  401,
			"message": "Unauthorized",
		})
		return
	}

	c.JSON(200, gin.H{
		"id":    caller.UserID,
		"email": caller.Email,
		"name":  caller.Name,
	})
}
