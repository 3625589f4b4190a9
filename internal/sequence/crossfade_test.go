package sequence

import (
	"errors"
	"testing"

	"github.com/coreman2200/lumiseq/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMorphComplexSimpleToSimple(t *testing.T) {
	m, err := MorphComplex(Still(model.Black, 100), Still(model.White, 100), 100, 5)
	require.NoError(t, err)

	frames := collect(t, m)
	require.Len(t, frames, 7)
	assert.Equal(t, []uint8{0, 42, 85, 127, 170, 212, 255}, reds(frames))
	assert.Equal(t, 300, model.TotalMillis(frames))
	for _, f := range frames[1:6] {
		assert.Equal(t, 20, f.Millis())
	}
}

func TestMorphComplexAnchorSkipsTrailingWait(t *testing.T) {
	src := Frames(model.Simple{Color: model.Red, Ms: 10}, model.Wait{Ms: 10})
	m, err := MorphComplex(src, Still(model.Blue, 10), 20, 1)
	require.NoError(t, err)

	frames := collect(t, m)
	require.Len(t, frames, 4)
	assert.Equal(t, model.Wait{Ms: 10}, frames[1])
	assert.Equal(t, model.Simple{Color: model.RGB{R: 127, B: 127}, Ms: 20}, frames[2])
	assert.Equal(t, model.Simple{Color: model.Blue, Ms: 10}, frames[3])
}

func TestMorphComplexWidensSimpleAnchor(t *testing.T) {
	dst := Frames(model.Complex{Colors: []model.RGB{model.Black, model.Blue}, Ms: 50})
	m, err := MorphComplex(Still(model.Red, 50), dst, 100, 1)
	require.NoError(t, err)

	frames := collect(t, m)
	require.Len(t, frames, 3)
	bridge, ok := frames[1].(model.Complex)
	require.True(t, ok)
	assert.Equal(t, []model.RGB{{R: 127}, {R: 127, B: 127}}, bridge.Colors)
	assert.Equal(t, 100, bridge.Ms)
}

func TestMorphBetweenComplex(t *testing.T) {
	from := model.Complex{Colors: []model.RGB{{}, {R: 240}}, Ms: 10}
	to := model.Complex{Colors: []model.RGB{{R: 240}, {}}, Ms: 10}

	m, err := MorphBetweenComplex(from, to, 100, 2)
	require.NoError(t, err)
	frames := collect(t, m)
	assert.Equal(t, []model.Frame{
		model.Complex{Colors: []model.RGB{{R: 80}, {R: 160}}, Ms: 50},
		model.Complex{Colors: []model.RGB{{R: 160}, {R: 80}}, Ms: 50},
	}, frames)

	_, err = MorphBetweenComplex(from, model.Complex{Colors: []model.RGB{{}}}, 100, 2)
	assert.True(t, errors.Is(err, model.ErrInvalid))
}

func TestMorphComplexEagerValidation(t *testing.T) {
	_, err := MorphComplex(Still(model.Red, 10), Still(model.Blue, 10), 100, 0)
	assert.True(t, errors.Is(err, model.ErrInvalid))

	_, err = MorphComplex(Still(model.Red, 10), Still(model.Blue, 10), 50, 10)
	assert.True(t, errors.Is(err, model.ErrInvalid))
}

func TestMorphComplexContentErrors(t *testing.T) {
	two := model.Complex{Colors: []model.RGB{model.Red, model.Red}, Ms: 10}
	three := model.Complex{Colors: []model.RGB{model.Red, model.Red, model.Red}, Ms: 10}

	cases := []struct {
		name     string
		src, dst Animation
	}{
		{"empty source", Frames(), Still(model.Blue, 10)},
		{"source only waits", Frames(model.Wait{Ms: 10}), Still(model.Blue, 10)},
		{"empty target", Still(model.Red, 10), Frames()},
		{"target starts with wait", Still(model.Red, 10), Frames(model.Wait{Ms: 10}, model.Simple{Color: model.Blue, Ms: 10})},
		{"channel mismatch", Frames(two), Frames(three)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := MorphComplex(tc.src, tc.dst, 100, 2)
			require.NoError(t, err)
			_, err = Collect(m)
			assert.True(t, errors.Is(err, model.ErrInvalid))
		})
	}
}

func TestMorphComplexPullsTargetLazily(t *testing.T) {
	p, pulled := counting()
	m, err := MorphComplex(Still(model.Black, 10), FromProducer(p), 100, 2)
	require.NoError(t, err)
	assert.False(t, m.Restartable())
	assert.Equal(t, 0, *pulled)

	l, err := LimitDuration(m, 120)
	require.NoError(t, err)
	frames := collect(t, l)
	// black, two bridge frames, then the first target frame
	assert.Len(t, frames, 4)
	assert.Equal(t, 1, *pulled)
}

func TestCrossFadeDefaultSteps(t *testing.T) {
	m, err := CrossFade(Still(model.Black, 10), Still(model.White, 10), 330)
	require.NoError(t, err)
	frames := collect(t, m)
	assert.Len(t, frames, 12)
	assert.Equal(t, 350, model.TotalMillis(frames))
}
