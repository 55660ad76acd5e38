package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"valuescout/internal/model"
	"valuescout/internal/service"
)

// statusForKind maps a scout error kind onto an HTTP status
func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindEnvironmentAuthFailure:
		return http.StatusServiceUnavailable
	case service.KindCredentialRejected, service.KindMalformedResponse:
		return http.StatusBadGateway
	case service.KindSuperseded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) model.ErrorResponse {
	return model.ErrorResponse{
		Error:   string(service.KindOf(err)),
		Message: err.Error(),
	}
}

// respondError writes a scout error with its mapped status
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusForKind(service.KindOf(err)), errorBody(err))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "INVALID_REQUEST", Message: message})
}
