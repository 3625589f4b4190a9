package sequence

import (
	"errors"
	"testing"

	"github.com/coreman2200/lumiseq/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothFpsValidation(t *testing.T) {
	_, err := SmoothFps(Still(model.Red, 10), 0)
	assert.True(t, errors.Is(err, model.ErrInvalid))
}

func TestSmoothFpsAveragesSlice(t *testing.T) {
	in := Frames(model.Simple{Color: model.Red, Ms: 25}, model.Simple{Color: model.Blue, Ms: 25})
	s, err := SmoothFps(in, 20)
	require.NoError(t, err)

	assert.Equal(t, []model.Frame{model.Simple{Color: model.RGB{R: 128, B: 128}, Ms: 50}}, collect(t, s))
}

func TestSmoothFpsKeepsTotalDuration(t *testing.T) {
	fs := make([]model.Frame, 7)
	for i := range fs {
		fs[i] = model.Simple{Color: model.Red, Ms: 10}
	}
	s, err := SmoothFps(Frames(fs...), 30)
	require.NoError(t, err)

	frames := collect(t, s)
	assert.Equal(t, []model.Frame{
		model.Simple{Color: model.Red, Ms: 34},
		model.Simple{Color: model.Red, Ms: 34},
		model.Simple{Color: model.Red, Ms: 2},
	}, frames)
}

func TestSmoothFpsWaitHoldsPreviousColour(t *testing.T) {
	in := Frames(model.Simple{Color: model.Red, Ms: 10}, model.Wait{Ms: 10})
	s, err := SmoothFps(in, 50)
	require.NoError(t, err)

	assert.Equal(t, []model.Frame{model.Simple{Color: model.Red, Ms: 20}}, collect(t, s))
}

func TestSmoothFpsComplex(t *testing.T) {
	in := Frames(
		model.Complex{Colors: []model.RGB{model.Red, model.Blue}, Ms: 20},
		model.Complex{Colors: []model.RGB{model.Blue, model.Red}, Ms: 20},
	)
	s, err := SmoothFps(in, 25)
	require.NoError(t, err)

	mixed := model.RGB{R: 128, B: 128}
	assert.Equal(t, []model.Frame{model.Complex{Colors: []model.RGB{mixed, mixed}, Ms: 40}}, collect(t, s))
}

func TestSmoothFpsLongFramesAreSliced(t *testing.T) {
	s, err := SmoothFps(Still(model.Green, 100), 20)
	require.NoError(t, err)

	frames := collect(t, s)
	assert.Equal(t, []model.Frame{
		model.Simple{Color: model.Green, Ms: 50},
		model.Simple{Color: model.Green, Ms: 50},
	}, frames)
}
