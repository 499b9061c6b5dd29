package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/partnerbot/backend/pkg/errors"
)

// Body is the standard API response envelope.
type Body struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// OKWithWarnings sends a 200 JSON response carrying soft failures the operator should see.
func OKWithWarnings(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data, Warnings: warnings})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// CreatedWithWarnings sends a 201 JSON response with data and soft failures.
func CreatedWithWarnings(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data, Warnings: warnings})
}

// Accepted sends a 202 JSON response with data.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// BadGateway sends 502.
func BadGateway(c *gin.Context, err string) {
	c.JSON(http.StatusBadGateway, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a domain error to its status code. fallback is the message used for 500s.
func Error(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrCategoryInUse),
		errors.Is(err, apperrors.ErrNotSetUp):
		Conflict(c, err.Error())
	default:
		Internal(c, fallback)
	}
}
