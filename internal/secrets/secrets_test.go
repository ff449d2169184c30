package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	value string
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{
		Parameter: &types.Parameter{Name: params.Name, Value: aws.String(f.value)},
	}, nil
}

func TestUsable(t *testing.T) {
	assert.True(t, Usable("abc123"))
	assert.False(t, Usable(""))
	assert.False(t, Usable("   "))
	assert.False(t, Usable(PlaceholderKey))
}

func TestStaticKey(t *testing.T) {
	key, err := StaticKey("abc").APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", key)
}

func TestParameterStoreKey(t *testing.T) {
	t.Run("Value read once and reused", func(t *testing.T) {
		fake := &fakeSSM{value: "from-ssm"}
		p := NewParameterStoreKey(fake, "/transit-api/digitransit-api-key", "from-env", zerolog.Nop())

		for i := 0; i < 3; i++ {
			key, err := p.APIKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "from-ssm", key)
		}
		assert.Equal(t, 1, fake.calls)
	})

	t.Run("Lookup failure falls back to environment key", func(t *testing.T) {
		fake := &fakeSSM{err: errors.New("AccessDeniedException")}
		p := NewParameterStoreKey(fake, "/transit-api/digitransit-api-key", "from-env", zerolog.Nop())

		key, err := p.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "from-env", key)

		for i := 0; i < 4; i++ {
			key, err = p.APIKey(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "from-env", key)
		}
		assert.Equal(t, 1, fake.calls)

		// Once the retry window has passed the store is asked again
		p.retryAt = time.Now().Add(-time.Second)
		fake.err = nil
		fake.value = "from-ssm"

		key, err = p.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "from-ssm", key)
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("Placeholder value falls back to environment key", func(t *testing.T) {
		fake := &fakeSSM{value: PlaceholderKey}
		p := NewParameterStoreKey(fake, "/transit-api/digitransit-api-key", "", zerolog.Nop())

		key, err := p.APIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", key)
	})
}
