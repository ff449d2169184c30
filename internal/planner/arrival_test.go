package planner

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ajespoo/RoutePlanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helsinki(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)
	return loc
}

func TestParseArrival(t *testing.T) {
	loc := helsinki(t)

	tests := []struct {
		name       string
		input      string
		wantOffset string
		wantErr    bool
	}{
		{name: "Summer time", input: "20250909084500", wantOffset: "+03:00"},
		{name: "Winter time", input: "20250115084500", wantOffset: "+02:00"},
		{name: "Repeated hour at fall back", input: "20251026033000"},
		{name: "Leap day", input: "20240229120000", wantOffset: "+02:00"},
		{name: "ISO date", input: "2025-09-09", wantErr: true},
		{name: "Too short", input: "2025090908450", wantErr: true},
		{name: "Too long", input: "202509090845000", wantErr: true},
		{name: "Letters", input: "2025090908450a", wantErr: true},
		{name: "Signed", input: "+2025090908450", wantErr: true},
		{name: "Month 13", input: "20251309084500", wantErr: true},
		{name: "February 30", input: "20250230084500", wantErr: true},
		{name: "Not a leap year", input: "20250229120000", wantErr: true},
		{name: "Hour 24", input: "20250909240000", wantErr: true},
		{name: "Minute 60", input: "20250909086000", wantErr: true},
		{name: "Skipped by spring forward", input: "20250330033000", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArrival(tt.input, loc)
			if tt.wantErr {
				var inputErr *InputError
				require.ErrorAs(t, err, &inputErr)
				assert.Equal(t, models.ErrInvalidDateFormat, inputErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got.Format(ArrivalLayout))
			if tt.wantOffset != "" {
				assert.Equal(t, tt.wantOffset, got.Format("-07:00"))
			}
		})
	}
}

func TestParseArrival_AnyFourteenDigits(t *testing.T) {
	loc := helsinki(t)
	rng := rand.New(rand.NewSource(20250909))

	for i := 0; i < 5000; i++ {
		input := fmt.Sprintf("%014d", rng.Int63n(1e14))
		if i%2 == 0 {
			// Bias half the samples towards plausible calendar values
			input = fmt.Sprintf("%04d%02d%02d%02d%02d%02d",
				1970+rng.Intn(100), 1+rng.Intn(13), 1+rng.Intn(31), rng.Intn(25), rng.Intn(61), rng.Intn(61))
		}

		got, err := ParseArrival(input, loc)
		if err != nil {
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr, input)
			assert.Equal(t, models.ErrInvalidDateFormat, inputErr.Code, input)
			continue
		}
		assert.Equal(t, input, got.Format(ArrivalLayout))
	}
}
