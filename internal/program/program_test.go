package program

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/lumiseq/internal/sequence"
	"github.com/coreman2200/lumiseq/model"
)

func compileYAML(t *testing.T, src string, channels int) (sequence.Animation, error) {
	t.Helper()
	p, err := Parse([]byte(src), false)
	require.NoError(t, err)
	return Compile(p, channels)
}

func TestLoadDemo(t *testing.T) {
	p, err := Load("testdata/demo.yaml")
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)
	assert.Equal(t, 2, p.Repeat)
	require.Len(t, p.Steps, 6)
	assert.Equal(t, model.RGB{B: 255}, p.Steps[2].FadeTo.Color.RGB())

	a, err := Compile(p, 3)
	require.NoError(t, err)
	frames, err := sequence.Collect(a)
	require.NoError(t, err)
	assert.Len(t, frames, 66)
	assert.Equal(t, 2136, model.TotalMillis(frames))
	assert.True(t, a.Restartable())
}

func TestLoadJSONWave(t *testing.T) {
	p, err := Load("testdata/wave.json")
	require.NoError(t, err)

	a, err := Compile(p, 3)
	require.NoError(t, err)
	frames, err := sequence.Collect(a)
	require.NoError(t, err)
	assert.Equal(t, 300, model.TotalMillis(frames))

	first, ok := frames[0].(model.Complex)
	require.True(t, ok)
	assert.Equal(t, []model.RGB{model.Red, model.Black, model.Black}, first.Colors)
	last, ok := frames[len(frames)-1].(model.Complex)
	require.True(t, ok)
	assert.Equal(t, []model.RGB{model.Blue, model.Blue, model.Blue}, last.Colors)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseVersion(t *testing.T) {
	p, err := Parse([]byte("steps: [{wait: {ms: 10}}]\n"), false)
	require.NoError(t, err)
	assert.Equal(t, Version, p.Version)

	_, err = Parse([]byte(`{"version":"seq.v0","steps":[]}`), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seq.v0")
}

func TestColorDecoding(t *testing.T) {
	var y struct {
		A Color `yaml:"a"`
		B Color `yaml:"b"`
		C Color `yaml:"c"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: \"#ff8000\"\nb: [1, 2, 300]\nc: \"#0f0\"\n"), &y))
	assert.Equal(t, model.RGB{R: 255, G: 128}, y.A.RGB())
	assert.Equal(t, model.RGB{R: 1, G: 2, B: 255}, y.B.RGB())
	assert.Equal(t, model.Green, y.C.RGB())

	var j []Color
	require.NoError(t, json.Unmarshal([]byte(`["#0000ff", [10, 20, 30]]`), &j))
	assert.Equal(t, []Color{Color(model.Blue), {R: 10, G: 20, B: 30}}, j)

	b, err := json.Marshal(Color(model.Red))
	require.NoError(t, err)
	assert.Equal(t, `"#ff0000"`, string(b))

	var short Color
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1, 2]`), &short), model.ErrInvalid)
	assert.ErrorIs(t, yaml.Unmarshal([]byte("a: nothex\n"), &y), model.ErrInvalid)
}

func TestCompileErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no steps":        "steps: []\n",
		"two kinds":       "steps:\n  - wait: {ms: 10}\n  - {wait: {ms: 10}, still: {color: '#fff', ms: 10}}\n",
		"empty step":      "steps: [{}]\n",
		"fade first":      "steps: [{fade_to: {color: '#fff', ms: 100}}]\n",
		"bad ease":        "steps: [{morph: {from: '#000', to: '#fff', ms: 100, ease: bounce}}]\n",
		"too fast":        "steps: [{morph: {from: '#000', to: '#fff', ms: 50, steps: 10}}]\n",
		"bad pattern":     "steps: [{pattern: {name: plasma, ms: 50}}]\n",
		"short pattern":   "steps: [{pattern: {name: index_sweep, ms: 5}}]\n",
		"repeat zero":     "steps: [{repeat: {times: 0, steps: [{wait: {ms: 10}}]}}]\n",
		"empty repeat":    "steps: [{repeat: {times: 2, steps: []}}]\n",
		"negative wave":   "steps: [{wave: {lag_ms: -1, steps: [{still: {color: '#fff', ms: 10}}]}}]\n",
		"negative still":  "steps: [{still: {color: '#fff', ms: -10}}]\n",
		"one colour many": "steps: [{morph_many: {colors: ['#fff'], ms: 100}}]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := compileYAML(t, src, 4)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
}

func TestCompileReportsStepIndex(t *testing.T) {
	_, err := compileYAML(t, "steps:\n  - wait: {ms: 10}\n  - pulse: {color: '#fff', ms: 10, steps: 5}\n", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
}

func TestCompileRejectsChannels(t *testing.T) {
	_, err := Compile(&Program{Steps: []Step{{Wait: &Wait{Ms: 10}}}}, 0)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestCompileLoop(t *testing.T) {
	a, err := compileYAML(t, "loop: true\nrepeat: 5\nsteps: [{still: {color: '#f00', ms: 100}}]\n", 1)
	require.NoError(t, err)

	limited, err := sequence.LimitDuration(a, 350)
	require.NoError(t, err)
	frames, err := sequence.Collect(limited)
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, 50, frames[3].Millis())
	assert.Equal(t, model.Red, frames[3].(model.Simple).Color)
}

func TestCompileEasedMorph(t *testing.T) {
	a, err := compileYAML(t, "steps: [{morph: {from: '#000', to: '#fff', ms: 100, steps: 3, ease: smooth}}]\n", 1)
	require.NoError(t, err)
	frames, err := sequence.Collect(a)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	// smoothstep(0.5) is 0.5
	assert.Equal(t, model.RGB{R: 127, G: 127, B: 127}, frames[1].(model.Simple).Color)
	assert.Equal(t, 100, model.TotalMillis(frames))
}

func TestCompileMaxFps(t *testing.T) {
	a, err := compileYAML(t, "max_fps: 20\nsteps:\n  - still: {color: '#f00', ms: 120}\n  - still: {color: '#00f', ms: 30}\n", 1)
	require.NoError(t, err)
	frames, err := sequence.Collect(a)
	require.NoError(t, err)
	assert.Equal(t, 150, model.TotalMillis(frames))
	for _, f := range frames {
		assert.LessOrEqual(t, f.Millis(), 50)
	}
}

func TestPatterns(t *testing.T) {
	sweep, err := NewPattern(IndexSweep, 3, 20)
	require.NoError(t, err)
	frames, err := sequence.Collect(sweep)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	for i, f := range frames {
		c := f.(model.Complex)
		assert.Equal(t, 20, c.Ms)
		for ch, col := range c.Colors {
			if ch == i {
				assert.Equal(t, model.White, col)
			} else {
				assert.Equal(t, model.Black, col)
			}
		}
	}
	again, err := sequence.Collect(sweep)
	require.NoError(t, err)
	assert.Equal(t, frames, again)

	rgb, err := NewPattern(RGBChannels, 2, 10)
	require.NoError(t, err)
	frames, err = sequence.Collect(rgb)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, []model.RGB{model.Green, model.Green}, frames[1].(model.Complex).Colors)

	_, err = NewPattern(IndexSweep, 0, 20)
	assert.ErrorIs(t, err, model.ErrInvalid)
}
