package planner

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/stops"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
)

// InputError is a caller fault detected before any upstream call
type InputError struct {
	Code    models.ErrorCode
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func missingParameter(name string) error {
	return &InputError{
		Code:    models.ErrMissingParameter,
		Message: fmt.Sprintf("Missing required parameter: %s", name),
	}
}

// Classify maps an error to the caller-facing taxonomy. Checks run in
// precedence order so a joined error reports its most specific cause.
// Only GraphQL error details are forwarded; everything else gets a fixed
// message.
func Classify(err error) *models.PlanError {
	var planErr *models.PlanError
	if errors.As(err, &planErr) {
		return planErr
	}

	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return &models.PlanError{ErrorCode: inputErr.Code, Message: inputErr.Message}
	}

	var notFound *stops.NotFoundError
	if errors.As(err, &notFound) {
		return &models.PlanError{
			ErrorCode: models.ErrStopNotFound,
			Message:   fmt.Sprintf("Stop not found: %s", notFound.Name),
			Details:   map[string]string{"stop": notFound.Name},
		}
	}

	var connErr *upstream.ConnectionError
	if errors.As(err, &connErr) {
		message := "Failed to connect to the routing service"
		if connErr.Timeout() {
			message = "The routing service did not respond in time"
		}
		return &models.PlanError{ErrorCode: models.ErrAPIConnection, Message: message}
	}

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return &models.PlanError{
			ErrorCode: models.ErrAPIConnection,
			Message:   fmt.Sprintf("The routing service returned HTTP %d", statusErr.StatusCode),
			Details:   map[string]int{"status": statusErr.StatusCode},
		}
	}

	var gqlErr *upstream.GraphQLErrors
	if errors.As(err, &gqlErr) {
		return &models.PlanError{
			ErrorCode: models.ErrPlanning,
			Message:   "The routing service could not plan the journey",
			Details:   gqlErr.Errors,
		}
	}

	return &models.PlanError{
		ErrorCode: models.ErrInternal,
		Message:   "An unexpected error occurred",
	}
}

// HTTPStatus returns the response status for an error code
func HTTPStatus(code models.ErrorCode) int {
	switch code {
	case models.ErrMissingParameter, models.ErrInvalidDateFormat, models.ErrQueryTooShort:
		return http.StatusBadRequest
	case models.ErrStopNotFound:
		return http.StatusNotFound
	case models.ErrRateLimited:
		return http.StatusTooManyRequests
	case models.ErrAPIConnection:
		return http.StatusServiceUnavailable
	case models.ErrPlanning:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
