package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Wire types mirror the planConnection selection set. Every field is
// optional because the upstream schema has drifted between versions.

type planData struct {
	PlanConnection *planConnection `json:"planConnection"`
}

type planConnection struct {
	Edges []planEdge `json:"edges"`
}

type planEdge struct {
	Node *itineraryNode `json:"node"`
}

type itineraryNode struct {
	Start              *timeValue `json:"start"`
	End                *timeValue `json:"end"`
	Duration           *float64   `json:"duration"`
	Legs               []wireLeg  `json:"legs"`
	EmissionsPerPerson *emissions `json:"emissionsPerPerson"`
}

type emissions struct {
	CO2 *float64 `json:"co2"`
}

type wireLeg struct {
	Mode              *string    `json:"mode"`
	Duration          *float64   `json:"duration"`
	Distance          *float64   `json:"distance"`
	From              *wirePlace `json:"from"`
	To                *wirePlace `json:"to"`
	Start             *legTime   `json:"start"`
	End               *legTime   `json:"end"`
	Route             *wireRoute `json:"route"`
	Trip              *wireTrip  `json:"trip"`
	RealTime          *bool      `json:"realTime"`
	RealtimeState     *string    `json:"realtimeState"`
	IntermediateStops []wireStop `json:"intermediateStops"`
}

type wirePlace struct {
	Name *string   `json:"name"`
	Lat  *float64  `json:"lat"`
	Lon  *float64  `json:"lon"`
	Stop *wireStop `json:"stop"`
}

type legTime struct {
	ScheduledTime *timeValue `json:"scheduledTime"`
	Estimated     *estimated `json:"estimated"`
	Place         *wirePlace `json:"place"`
}

type estimated struct {
	Time *timeValue `json:"time"`
}

type wireRoute struct {
	GtfsID    *string `json:"gtfsId"`
	ShortName *string `json:"shortName"`
	LongName  *string `json:"longName"`
	Mode      *string `json:"mode"`
}

type wireTrip struct {
	GtfsID       *string    `json:"gtfsId"`
	TripHeadsign *string    `json:"tripHeadsign"`
	Route        *wireRoute `json:"route"`
}

type wireStop struct {
	GtfsID *string `json:"gtfsId"`
	Code   *string `json:"code"`
	Name   *string `json:"name"`
}

// timeValue accepts an ISO-8601 offset date time or epoch milliseconds
type timeValue struct {
	time.Time
}

func (t *timeValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	ms, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch time %s: %w", b, err)
	}
	t.Time = time.UnixMilli(ms)
	return nil
}
