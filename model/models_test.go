package model_test

import (
	"errors"
	"strconv"
	"testing"

	. "github.com/coreman2200/lumiseq/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestClampIsExpectedComponent = []struct {
	Given  float64
	Expect uint8
}{
	{-12.5, 0},
	{0, 0},
	{0.99, 0},
	{42.5, 42},
	{254.99, 254},
	{255, 255},
	{1024, 255},
}

var TestLerpIsExpectedColor = []struct {
	From   RGB
	To     RGB
	Ratio  float64
	Expect RGB
}{
	{Black, White, 0, Black},
	{Black, White, 1, White},
	{Black, White, 0.5, RGB{127, 127, 127}},
	{RGB{240, 0, 0}, Black, 0.25, RGB{180, 0, 0}},
	{RGB{10, 20, 30}, RGB{110, 220, 30}, 0.5, RGB{60, 120, 30}},
}

func TestClamp(t *testing.T) {
	for k, v := range TestClampIsExpectedComponent {
		t.Run("Given component "+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, Clamp(v.Given))
		})
	}
}

func TestLerp(t *testing.T) {
	for k, v := range TestLerpIsExpectedColor {
		t.Run("Given ratio "+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, v.From.Lerp(v.To, v.Ratio))
		})
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 128, 0}, c)

	c, err = ParseHex("00ff00")
	require.NoError(t, err)
	assert.Equal(t, Green, c)
	assert.Equal(t, "#00ff00", c.Hex())

	_, err = ParseHex("not a colour")
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestFrameDurationsAreTruncated(t *testing.T) {
	assert.Equal(t, 16, NewSimple(Red, 16.9).Ms)
	assert.Equal(t, 0, NewSimple(Red, -3).Ms)
	assert.Equal(t, 33, NewComplex([]RGB{Red}, 33.3).Ms)
	assert.Equal(t, 5, NewWait(5.5).Ms)
}

func TestNewComplexCopiesColors(t *testing.T) {
	colors := []RGB{Red, Green}
	f := NewComplex(colors, 10)
	colors[0] = Blue
	assert.Equal(t, Red, f.Colors[0])
}

func TestWithMillisKeepsKind(t *testing.T) {
	var f Frame = NewSimple(Red, 20)
	g := f.WithMillis(5)
	assert.Equal(t, Simple{Color: Red, Ms: 5}, g)
	assert.Equal(t, 20, f.Millis())

	w := Wait{Ms: 10}.WithMillis(1)
	assert.IsType(t, Wait{}, w)
}

func TestComplexValidate(t *testing.T) {
	f := ComplexFromSimple(Simple{Color: Blue, Ms: 10}, 4)
	assert.Len(t, f.Colors, 4)
	assert.NoError(t, f.Validate(4))
	assert.True(t, errors.Is(f.Validate(2), ErrInvalid))
}

func TestPackRGB(t *testing.T) {
	buf := make([]byte, 9)
	got := PackRGB(buf, []RGB{{1, 2, 3}, {4, 5, 6}})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got)

	FillRGB(buf, RGB{7, 8, 9})
	assert.Equal(t, []byte{7, 8, 9, 7, 8, 9, 7, 8, 9}, buf)
}

func TestTotalMillis(t *testing.T) {
	frames := []Frame{Simple{Color: Red, Ms: 10}, Wait{Ms: 5}, Complex{Colors: []RGB{Red}, Ms: 7}}
	assert.Equal(t, 22, TotalMillis(frames))
}
