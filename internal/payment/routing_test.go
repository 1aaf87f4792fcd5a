package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectByAmount(t *testing.T) {
	cfg := RouterConfig{
		Threshold:     500_000,
		WaylSecretKey: "sk-wayl",
		ZainSecretKey: "sk-zain",
	}

	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{"small amount goes to wayl", 10_000, "wayl"},
		{"exactly threshold stays on wayl", 500_000, "wayl"},
		{"just above threshold goes to zain", 500_001, "zain-direct"},
		{"large amount goes to zain", 2_000_000, "zain-direct"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SelectByAmount(tc.amount, cfg).Name())
		})
	}

	t.Run("default threshold applies when unset", func(t *testing.T) {
		require.Equal(t, "wayl", SelectByAmount(DefaultRoutingThreshold, RouterConfig{}).Name())
		require.Equal(t, "zain-direct", SelectByAmount(DefaultRoutingThreshold+1, RouterConfig{}).Name())
	})

	t.Run("fresh adapter per call", func(t *testing.T) {
		first := SelectByAmount(1_000, cfg).(Wayl)
		second := SelectByAmount(1_000, cfg).(Wayl)
		require.Equal(t, first, second)
		first.SecretKey = "mutated"
		require.NotEqual(t, first, SelectByAmount(1_000, cfg).(Wayl))
	})
}

func TestSelectByName(t *testing.T) {
	cfg := RouterConfig{WaylSecretKey: "sk-wayl", ZainSecretKey: "sk-zain"}

	p, err := SelectByName("wayl", cfg)
	require.NoError(t, err)
	require.Equal(t, "wayl", p.Name())

	p, err = SelectByName(" Zain-Direct ", cfg)
	require.NoError(t, err)
	require.Equal(t, "zain-direct", p.Name())

	_, err = SelectByName("stripe", cfg)
	require.ErrorIs(t, err, ErrUnknownProvider)
}
