package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/normalize"
	"github.com/ajespoo/RoutePlanner/internal/stops"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	notFound := &stops.NotFoundError{Name: "Nonexistent Stop Name"}
	connErr := &upstream.ConnectionError{Class: upstream.Plan, Err: context.DeadlineExceeded}
	gqlErr := &upstream.GraphQLErrors{Errors: []upstream.GraphQLError{{Message: "boom"}}}

	tests := []struct {
		name     string
		err      error
		expected models.ErrorCode
	}{
		{name: "Missing parameter", err: missingParameter("from"), expected: models.ErrMissingParameter},
		{name: "Invalid date", err: invalidDate("2025-09-09"), expected: models.ErrInvalidDateFormat},
		{name: "Stop not found", err: notFound, expected: models.ErrStopNotFound},
		{name: "Wrapped stop not found", err: fmt.Errorf("origin: %w", notFound), expected: models.ErrStopNotFound},
		{name: "Connection", err: connErr, expected: models.ErrAPIConnection},
		{name: "Status", err: &upstream.StatusError{StatusCode: 502}, expected: models.ErrAPIConnection},
		{name: "GraphQL errors", err: gqlErr, expected: models.ErrPlanning},
		{name: "Malformed body", err: &upstream.MalformedBodyError{Err: errors.New("invalid character '<'")}, expected: models.ErrInternal},
		{name: "Missing plan connection", err: normalize.ErrMissingPlanConnection, expected: models.ErrInternal},
		{name: "Anything else", err: errors.New("nil pointer"), expected: models.ErrInternal},
		{name: "Input beats not found", err: errors.Join(notFound, missingParameter("to")), expected: models.ErrMissingParameter},
		{name: "Not found beats connection", err: errors.Join(connErr, notFound), expected: models.ErrStopNotFound},
		{name: "Connection beats planning", err: errors.Join(gqlErr, connErr), expected: models.ErrAPIConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err).ErrorCode)
		})
	}
}

func TestClassify_NoInternalDetailLeaks(t *testing.T) {
	planErr := Classify(errors.New("dial tcp 10.0.0.7:5432: secret internals"))

	assert.Equal(t, "An unexpected error occurred", planErr.Message)
	assert.Nil(t, planErr.Details)
}

func TestClassify_Timeout(t *testing.T) {
	planErr := Classify(&upstream.ConnectionError{Class: upstream.Plan, Err: context.DeadlineExceeded})

	assert.Contains(t, planErr.Message, "did not respond in time")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     models.ErrorCode
		expected int
	}{
		{models.ErrMissingParameter, http.StatusBadRequest},
		{models.ErrInvalidDateFormat, http.StatusBadRequest},
		{models.ErrQueryTooShort, http.StatusBadRequest},
		{models.ErrStopNotFound, http.StatusNotFound},
		{models.ErrRateLimited, http.StatusTooManyRequests},
		{models.ErrAPIConnection, http.StatusServiceUnavailable},
		{models.ErrPlanning, http.StatusBadGateway},
		{models.ErrInternal, http.StatusInternalServerError},
		{models.ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}
