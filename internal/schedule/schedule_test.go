package schedule

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStage_Endpoints(t *testing.T) {
	for _, c := range []Curve{Canonical, Classic} {
		require.Equal(t, 0, c.StageAt(0))
		require.Equal(t, c.Stages-1, c.StageAt(1))
		require.Equal(t, 0, c.Stage(600, 600))
		require.Equal(t, c.Stages-1, c.Stage(600, 0))
	}
}

func TestStage_Monotonic(t *testing.T) {
	for _, c := range []Curve{Canonical, Classic} {
		last := -1
		for i := 0; i <= 10000; i++ {
			s := c.StageAt(float64(i) / 10000)
			require.GreaterOrEqual(t, s, last, "progress %d/10000", i)
			require.Less(t, s, c.Stages)
			last = s
		}
	}
}

func TestStage_ZeroTotal(t *testing.T) {
	require.Equal(t, 0, Canonical.Stage(0, 0))
	require.Equal(t, 0, Canonical.Stage(0, 50))
	require.Equal(t, 0, Canonical.Stage(-60, 10))

	_, ok := Progress(0, 0)
	require.False(t, ok)
}

func TestProgress_Clamped(t *testing.T) {
	p, ok := Progress(100, 150)
	require.True(t, ok)
	require.Equal(t, 0.0, p)

	p, ok = Progress(100, -20)
	require.True(t, ok)
	require.Equal(t, 1.0, p)
}

func TestBlockSize_Endpoints(t *testing.T) {
	for _, c := range []Curve{Canonical, Classic} {
		require.Equal(t, c.MaxBlockSize, c.BlockSize(0))
		require.Equal(t, c.MinBlockSize, c.BlockSize(c.Stages-1))
		// out of range stages clamp
		require.Equal(t, c.MaxBlockSize, c.BlockSize(-3))
		require.Equal(t, c.MinBlockSize, c.BlockSize(c.Stages+4))
	}
}

func TestBlockSize_Decreasing(t *testing.T) {
	for _, c := range []Curve{Canonical, Classic} {
		for s := 1; s < c.Stages; s++ {
			require.LessOrEqual(t, c.BlockSize(s), c.BlockSize(s-1), "stage %d", s)
		}
	}
}

func TestBlockSize_SingleStage(t *testing.T) {
	c := Canonical
	c.Stages = 1
	require.Equal(t, c.MaxBlockSize, c.BlockSize(0))
}

func TestScenario_TenMinutes(t *testing.T) {
	c := Canonical

	start := c.At(600, 600)
	require.Equal(t, Step{Stage: 0, BlockSize: 256, Saturation: 1}, start)

	half := c.At(600, 300)
	require.Equal(t, 8, half.Stage)
	want := int(math.Round(256 * math.Pow(8.0/256.0, math.Pow(8.0/15.0, 1.4))))
	require.Equal(t, want, half.BlockSize)
	require.Less(t, half.BlockSize, start.BlockSize)
	require.Greater(t, half.BlockSize, c.MinBlockSize)
}

func TestSaturation(t *testing.T) {
	c := Canonical
	tests := []struct {
		remaining int
		want      float64
	}{
		{600, 1},
		{61, 1},
		{60, 1},
		{30, 0.75},
		{0, 0.5},
		{-5, 0.5},
	}
	for _, tt := range tests {
		require.InDelta(t, tt.want, c.Saturation(tt.remaining), 1e-9, "remaining %d", tt.remaining)
	}

	noFade := c
	noFade.FadeSeconds = 0
	require.Equal(t, 1.0, noFade.Saturation(0))
}

func TestPreset(t *testing.T) {
	c, err := Preset("classic")
	require.NoError(t, err)
	require.Equal(t, Classic, c)

	_, err = Preset("nope")
	require.True(t, errors.Is(err, ErrUnknownPreset))
	require.Equal(t, []string{"canonical", "classic"}, PresetNames())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Canonical.Validate())
	require.NoError(t, Classic.Validate())

	bad := []func(c *Curve){
		func(c *Curve) { c.Stages = 0 },
		func(c *Curve) { c.MinBlockSize = 0 },
		func(c *Curve) { c.MaxBlockSize = 2 },
		func(c *Curve) { c.Exponent = 0 },
		func(c *Curve) { c.Exponent = math.NaN() },
		func(c *Curve) { c.FadeSeconds = -1 },
		func(c *Curve) { c.FadeFloor = 1.5 },
	}
	for i, mutate := range bad {
		c := Canonical
		mutate(&c)
		require.Error(t, c.Validate(), "case %d", i)
	}
}
