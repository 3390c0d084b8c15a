package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trade-journal/internal/errors"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Ok writes a 200 envelope.
func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error writes an error envelope and aborts the chain.
func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.AbortWithStatusJSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps err to a status and writes it. Validation failures carry the
// offending field in meta.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusOf(err)
	var meta map[string]any
	message := err.Error()

	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		message = ve.Message
		if ve.Field != "" {
			meta = map[string]any{"field": ve.Field}
		}
	}
	var rowErr *errors.RowError
	if errors.As(err, &rowErr) {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["row"] = rowErr.Row
	}
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	Error(c, status, message, meta)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrInputValidation), errors.Is(err, errors.ErrImportFailed):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrDuplicateTrade):
		return http.StatusConflict
	case errors.Is(err, errors.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrTradeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}
