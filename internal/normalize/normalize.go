package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/ajespoo/RoutePlanner/internal/upstream"
)

// UnknownPlace is used when upstream gives no name for a leg endpoint
const UnknownPlace = "Unknown"

// ErrMissingPlanConnection means the response carried no planConnection object
var ErrMissingPlanConnection = errors.New("invalid API response format: missing planConnection")

// Request carries the caller-facing labels echoed into the result
type Request struct {
	FromStop         string
	ToStop           string
	RequestedArrival string
}

// Normalize flattens a planConnection response into a PlanSuccess.
// GraphQL errors take precedence over any data that came with them and are
// returned as *upstream.GraphQLErrors.
func Normalize(raw *upstream.RawResponse, req Request) (*models.PlanSuccess, error) {
	if raw == nil {
		return nil, ErrMissingPlanConnection
	}
	if err := raw.Err(); err != nil {
		return nil, err
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil, ErrMissingPlanConnection
	}

	var data planData
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode plan data: %w", err)
	}
	if data.PlanConnection == nil {
		return nil, ErrMissingPlanConnection
	}

	itineraries := make([]models.Itinerary, 0, len(data.PlanConnection.Edges))
	for _, edge := range data.PlanConnection.Edges {
		if edge.Node == nil {
			continue
		}
		itineraries = append(itineraries, toItinerary(edge.Node))
	}

	return &models.PlanSuccess{
		Success:          true,
		FromStop:         req.FromStop,
		ToStop:           req.ToStop,
		RequestedArrival: req.RequestedArrival,
		Itineraries:      itineraries,
		TotalCount:       len(itineraries),
	}, nil
}

func toItinerary(node *itineraryNode) models.Itinerary {
	it := models.Itinerary{
		StartTime:       timePtr(node.Start),
		EndTime:         timePtr(node.End),
		DurationSeconds: seconds(node.Duration),
		Legs:            make([]models.Leg, 0, len(node.Legs)),
	}
	if node.EmissionsPerPerson != nil && node.EmissionsPerPerson.CO2 != nil {
		co2 := *node.EmissionsPerPerson.CO2
		it.CO2PerPerson = &co2
	}

	for i := range node.Legs {
		it.Legs = append(it.Legs, toLeg(&node.Legs[i]))
	}

	return it
}

func toLeg(wl *wireLeg) models.Leg {
	leg := models.Leg{
		Mode:            models.TransitMode(deref(wl.Mode)),
		DurationSeconds: seconds(wl.Duration),
		From:            toPlace(wl.From, wl.Start),
		To:              toPlace(wl.To, wl.End),
		RealTime:        wl.RealTime != nil && *wl.RealTime,
		RealtimeState:   wl.RealtimeState,
	}

	if wl.Distance != nil {
		d := *wl.Distance
		leg.DistanceMeters = &d
	}

	if wl.Start != nil {
		leg.ScheduledStart = timePtr(wl.Start.ScheduledTime)
		if wl.Start.Estimated != nil {
			leg.EstimatedStart = timePtr(wl.Start.Estimated.Time)
		}
	}
	if wl.End != nil {
		leg.ScheduledEnd = timePtr(wl.End.ScheduledTime)
		if wl.End.Estimated != nil {
			leg.EstimatedEnd = timePtr(wl.End.Estimated.Time)
		}
	}

	leg.Route = toRoute(wl)
	leg.Trip = toTrip(wl.Trip)

	if wl.IntermediateStops != nil {
		leg.IntermediateStops = make([]models.StopRef, 0, len(wl.IntermediateStops))
		for _, s := range wl.IntermediateStops {
			leg.IntermediateStops = append(leg.IntermediateStops, models.StopRef{
				ID:   deref(s.GtfsID),
				Name: deref(s.Name),
			})
		}
	}

	return leg
}

// toPlace reads the direct from/to object first, then the place nested
// under start/end.
func toPlace(direct *wirePlace, t *legTime) models.PlaceRef {
	var nested *wirePlace
	if t != nil {
		nested = t.Place
	}

	ref := models.PlaceRef{Name: UnknownPlace}

	for _, p := range []*wirePlace{direct, nested} {
		if p == nil {
			continue
		}
		if ref.Name == UnknownPlace && p.Name != nil && strings.TrimSpace(*p.Name) != "" {
			ref.Name = *p.Name
		}
		if ref.Coordinate == nil && p.Lat != nil && p.Lon != nil {
			ref.Coordinate = &models.Coordinate{Latitude: *p.Lat, Longitude: *p.Lon}
		}
		if ref.StopID == nil && p.Stop != nil && p.Stop.GtfsID != nil {
			ref.StopID = p.Stop.GtfsID
			ref.StopCode = p.Stop.Code
		}
	}

	return ref
}

// toRoute prefers leg.route and falls back to leg.trip.route
func toRoute(wl *wireLeg) *models.RouteRef {
	r := wl.Route
	if r == nil && wl.Trip != nil {
		r = wl.Trip.Route
	}
	if r == nil {
		return nil
	}

	mode := deref(r.Mode)
	if mode == "" {
		mode = deref(wl.Mode)
	}

	return &models.RouteRef{
		ID:        deref(r.GtfsID),
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Mode:      mode,
	}
}

// toTrip returns nil when the trip object only exists to carry a route
func toTrip(t *wireTrip) *models.TripRef {
	if t == nil || (t.GtfsID == nil && t.TripHeadsign == nil) {
		return nil
	}
	return &models.TripRef{
		ID:       deref(t.GtfsID),
		Headsign: t.TripHeadsign,
	}
}

func seconds(f *float64) int {
	if f == nil {
		return 0
	}
	return int(math.Round(*f))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timePtr(t *timeValue) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
