package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"cycleroute/internal/middleware"
	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	riders repository.RiderRepository
	auth   *middleware.Auth
}

func NewAuthController(riders repository.RiderRepository, auth *middleware.Auth) *AuthController {
	return &AuthController{riders: riders, auth: auth}
}

func (ac *AuthController) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at most 72 bytes"})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Signup: could not hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	rider, err := ac.riders.CreateRider(c.Request.Context(), models.Rider{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hash),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		respondError(c, "Signup", err)
		return
	}

	ac.respondWithToken(c, http.StatusCreated, rider)
}

func (ac *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rider, err := ac.riders.FindRiderByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, "Login", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rider.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	ac.respondWithToken(c, http.StatusOK, rider)
}

func (ac *AuthController) respondWithToken(c *gin.Context, status int, rider models.Rider) {
	token, err := ac.auth.GenerateToken(rider.ID)
	if err != nil {
		logrus.WithError(err).Error("could not generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "rider": rider})
}
