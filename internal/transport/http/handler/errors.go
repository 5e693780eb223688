package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mochi-server/internal/app"
	"mochi-server/internal/transport/http/response"
)

// apiError is the transport view of an app error.
type apiError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// classify maps the app error taxonomy onto HTTP statuses. fallback is used as
// the message for server-side failures so internals are not leaked.
func classify(err error, fallback string) apiError {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		return apiError{http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized"}
	case errors.Is(err, app.ErrInvalidCredential):
		return apiError{http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error()}
	case errors.Is(err, app.ErrInvalidIdentifier):
		return apiError{http.StatusBadRequest, response.CodeInvalidIdentifier, err.Error()}
	case errors.Is(err, app.ErrMissingPersona):
		return apiError{http.StatusBadRequest, response.CodeMissingPersona, err.Error()}
	case errors.Is(err, app.ErrMessageEmpty):
		return apiError{http.StatusBadRequest, response.CodeMessageEmpty, err.Error()}
	case errors.Is(err, app.ErrInvalidInput):
		return apiError{http.StatusBadRequest, response.CodeBadRequest, err.Error()}
	case errors.Is(err, app.ErrUsernameExists):
		return apiError{http.StatusBadRequest, response.CodeUsernameExists, err.Error()}
	case errors.Is(err, app.ErrEmailExists):
		return apiError{http.StatusBadRequest, response.CodeEmailExists, err.Error()}
	case errors.Is(err, app.ErrNotFound):
		return apiError{http.StatusNotFound, response.CodeNotFound, "not found"}
	case errors.Is(err, app.ErrProvider):
		return apiError{http.StatusBadGateway, response.CodeProvider, "model provider failed"}
	case errors.Is(err, app.ErrCanceled):
		return apiError{http.StatusServiceUnavailable, response.CodeUnavailable, "request canceled"}
	case errors.Is(err, app.ErrStore):
		return apiError{http.StatusInternalServerError, response.CodeStore, fallback}
	default:
		return apiError{http.StatusInternalServerError, response.CodeInternalServer, fallback}
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	e := classify(err, fallback)
	response.Error(c, e.Status, e.Code, e.Message)
}
