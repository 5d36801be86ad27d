package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/domain"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

func SuccessResponse(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// HandleServiceError maps service and domain errors onto HTTP status codes.
// Anything unrecognized is a 500 and gets logged here, once.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrRoomNotFound),
		errors.Is(err, app.ErrPinNotFound),
		errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrNoPins):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRoomNameEmpty),
		errors.Is(err, domain.ErrRoomNameTooLong),
		errors.Is(err, domain.ErrPinTitleEmpty),
		errors.Is(err, domain.ErrPinTitleTooLong),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrLongitudeRange),
		errors.Is(err, domain.ErrLatitudeRange):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("unhandled service error")
		ErrorResponse(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
}
