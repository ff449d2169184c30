package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TransitMode represents the travel mode of a leg or route as reported upstream
type TransitMode string

const (
	ModeWalk      TransitMode = "WALK"
	ModeBus       TransitMode = "BUS"
	ModeTram      TransitMode = "TRAM"
	ModeRail      TransitMode = "RAIL"
	ModeSubway    TransitMode = "SUBWAY"
	ModeFerry     TransitMode = "FERRY"
	ModeBicycle   TransitMode = "BICYCLE"
	ModeCableCar  TransitMode = "CABLE_CAR"
	ModeFunicular TransitMode = "FUNICULAR"
)

// IsTransit reports whether the mode is a scheduled public transport mode
func (m TransitMode) IsTransit() bool {
	switch m {
	case ModeWalk, ModeBicycle, "":
		return false
	default:
		return true
	}
}

// StopQuery is the caller's request to locate a stop by name
type StopQuery struct {
	Name string `json:"name" validate:"required"`
}

// Coordinate is a WGS84 position
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate checks that the coordinate is within WGS84 bounds
func (c Coordinate) Validate() error {
	for _, v := range []float64{c.Latitude, c.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinate must be finite, got %f,%f", c.Latitude, c.Longitude)
		}
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}
	return nil
}

// LocalDateTimeLayout is the civil-time layout of ArrivalConstraint.LocalDateTime
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// ArrivalConstraint is a "latest arrival" wall-clock time together with the
// zone it is expressed in. LocalDateTime never carries an offset.
type ArrivalConstraint struct {
	LocalDateTime string `json:"localDateTime"`
	TimeZone      string `json:"timeZone"`
}

// NewArrivalConstraint builds a constraint from a civil time and a zone name
func NewArrivalConstraint(t time.Time, zone string) ArrivalConstraint {
	return ArrivalConstraint{
		LocalDateTime: t.Format(LocalDateTimeLayout),
		TimeZone:      zone,
	}
}

// Instant resolves the wall-clock value in the constraint's zone.
// The offset is the one in effect at that civil time, so DST is honoured.
func (a ArrivalConstraint) Instant() (time.Time, error) {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown time zone %q: %w", a.TimeZone, err)
	}

	t, err := time.ParseInLocation(LocalDateTimeLayout, a.LocalDateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid local date time %q: %w", a.LocalDateTime, err)
	}

	return t, nil
}

// Stop is a candidate returned by a stop name search
type Stop struct {
	GtfsID    string  `json:"gtfsId"`
	Name      string  `json:"name"`
	Code      string  `json:"code,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	ZoneID    string  `json:"zoneId,omitempty"`
}

// Coordinate returns the stop position
func (s Stop) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// PlaceRef identifies where a leg starts or ends
type PlaceRef struct {
	Name       string      `json:"name"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	StopID     *string     `json:"stopId,omitempty"`
	StopCode   *string     `json:"stopCode,omitempty"`
}

// RouteRef describes the line a transit leg rides on
type RouteRef struct {
	ID        string  `json:"id"`
	ShortName *string `json:"shortName,omitempty"`
	LongName  *string `json:"longName,omitempty"`
	Mode      string  `json:"mode"`
}

// TripRef identifies the scheduled vehicle run of a transit leg
type TripRef struct {
	ID       string  `json:"id"`
	Headsign *string `json:"headsign,omitempty"`
}

// StopRef represents an intermediate stop passed during a leg
type StopRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Leg represents one uninterrupted segment of an itinerary
type Leg struct {
	Mode              TransitMode `json:"mode"`
	DurationSeconds   int         `json:"durationSeconds"`
	DistanceMeters    *float64    `json:"distanceMeters,omitempty"`
	From              PlaceRef    `json:"from"`
	To                PlaceRef    `json:"to"`
	ScheduledStart    *time.Time  `json:"scheduledStart,omitempty"`
	ScheduledEnd      *time.Time  `json:"scheduledEnd,omitempty"`
	EstimatedStart    *time.Time  `json:"estimatedStart,omitempty"`
	EstimatedEnd      *time.Time  `json:"estimatedEnd,omitempty"`
	RealTime          bool        `json:"realTime"`
	RealtimeState     *string     `json:"realtimeState,omitempty"`
	Route             *RouteRef   `json:"route,omitempty"`
	Trip              *TripRef    `json:"trip,omitempty"`
	IntermediateStops []StopRef   `json:"intermediateStops,omitempty"`
}

// Itinerary is one complete door-to-door plan
type Itinerary struct {
	// StartTime and EndTime are nil when upstream leaves them out
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationSeconds int        `json:"durationSeconds"`
	Legs            []Leg      `json:"legs"`
	CO2PerPerson    *float64   `json:"co2PerPerson,omitempty"`
}

// ErrorCode is the caller-facing failure category
type ErrorCode string

const (
	ErrMissingParameter  ErrorCode = "MISSING_PARAMETER"
	ErrInvalidDateFormat ErrorCode = "INVALID_DATE_FORMAT"
	ErrStopNotFound      ErrorCode = "STOP_NOT_FOUND"
	ErrAPIConnection     ErrorCode = "API_CONNECTION_ERROR"
	ErrPlanning          ErrorCode = "PLANNING_ERROR"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
	ErrQueryTooShort     ErrorCode = "QUERY_TOO_SHORT"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
)

// PlanSuccess is the success arm of PlanResult
type PlanSuccess struct {
	Success          bool        `json:"success"`
	FromStop         string      `json:"fromStop"`
	ToStop           string      `json:"toStop"`
	RequestedArrival string      `json:"requestedArrival"`
	Itineraries      []Itinerary `json:"itineraries"`
	TotalCount       int         `json:"totalCount"`
}

// PlanError is the failure arm of PlanResult
type PlanError struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// PlanResult is exactly one of Success or Error
type PlanResult struct {
	Success *PlanSuccess
	Error   *PlanError
}

// Succeeded returns a result holding only the success arm
func Succeeded(s *PlanSuccess) PlanResult {
	return PlanResult{Success: s}
}

// Failed returns a result holding only the error arm
func Failed(e *PlanError) PlanResult {
	return PlanResult{Error: e}
}

// IsError reports whether the result is the error arm
func (r PlanResult) IsError() bool {
	return r.Error != nil
}

// Body returns the value to serialize as the response body
func (r PlanResult) Body() any {
	if r.Error != nil {
		return r.Error
	}
	return r.Success
}

// MarshalJSON serializes whichever arm is set
func (r PlanResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Body())
}

// StopSearchResult is the response body of a stop name search
type StopSearchResult struct {
	Success bool   `json:"success"`
	Query   string `json:"query"`
	Stops   []Stop `json:"stops"`
	Total   int    `json:"total"`
}
