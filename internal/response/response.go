// Package response provides standardized JSON response helpers.
package response

import (
	"net/http"

	app_errors "lm-bridge/internal/errors"

	"github.com/gin-gonic/gin"
)

// SuccessResponse defines the standard JSON success response structure.
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody wraps an ErrorDetail the way OpenAI-compatible clients expect.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine code and human message of a failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Success sends a standardized success response.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends a standardized error response using an APIError.
// The body shape matches what OpenAI-compatible clients parse, so a proxy
// failure surfaces in the client the same way an upstream failure would.
func Error(c *gin.Context, apiErr *app_errors.APIError) {
	c.JSON(apiErr.HTTPStatus, ErrorBody{
		Error: ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Type:    "proxy_error",
		},
	})
}
