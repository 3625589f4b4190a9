package program

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/lumiseq/model"
)

// Version is the program format understood by Compile.
const Version = "lumiseq.v1"

// Program is a list of steps played in order.
type Program struct {
	Version string `yaml:"version" json:"version"`
	// Loop repeats the program until stopped.
	Loop bool `yaml:"loop,omitempty" json:"loop,omitempty"`
	// Repeat plays the program this many times when Loop is false.
	Repeat int `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	// MaxFps caps the output frame rate, 0 leaves it alone.
	MaxFps int    `yaml:"max_fps,omitempty" json:"max_fps,omitempty"`
	Steps  []Step `yaml:"steps" json:"steps"`
}

// Step holds exactly one of its fields.
type Step struct {
	Still     *Still     `yaml:"still,omitempty" json:"still,omitempty"`
	Wait      *Wait      `yaml:"wait,omitempty" json:"wait,omitempty"`
	Morph     *Morph     `yaml:"morph,omitempty" json:"morph,omitempty"`
	Pulse     *Pulse     `yaml:"pulse,omitempty" json:"pulse,omitempty"`
	MorphMany *MorphMany `yaml:"morph_many,omitempty" json:"morph_many,omitempty"`
	FadeTo    *FadeTo    `yaml:"fade_to,omitempty" json:"fade_to,omitempty"`
	Wave      *Wave      `yaml:"wave,omitempty" json:"wave,omitempty"`
	Pattern   *Pattern   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Repeat    *Repeat    `yaml:"repeat,omitempty" json:"repeat,omitempty"`
}

type Still struct {
	Color Color `yaml:"color" json:"color"`
	Ms    int   `yaml:"ms" json:"ms"`
}

type Wait struct {
	Ms int `yaml:"ms" json:"ms"`
}

type Morph struct {
	From  Color  `yaml:"from" json:"from"`
	To    Color  `yaml:"to" json:"to"`
	Ms    int    `yaml:"ms" json:"ms"`
	Steps int    `yaml:"steps,omitempty" json:"steps,omitempty"`
	Ease  string `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

type Pulse struct {
	Color Color `yaml:"color" json:"color"`
	Ms    int   `yaml:"ms" json:"ms"`
	Steps int   `yaml:"steps,omitempty" json:"steps,omitempty"`
}

type MorphMany struct {
	Colors []Color `yaml:"colors" json:"colors"`
	Ms     int     `yaml:"ms" json:"ms"`
	Steps  int     `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// FadeTo cross-fades from the last colour shown into Color over Ms and then
// holds it for Ms.
type FadeTo struct {
	Color Color `yaml:"color" json:"color"`
	Ms    int   `yaml:"ms" json:"ms"`
}

// Wave plays Steps on every channel, each channel LagMs behind the previous
// one. Steps must only produce single colour frames.
type Wave struct {
	LagMs int    `yaml:"lag_ms" json:"lag_ms"`
	Fill  Color  `yaml:"fill,omitempty" json:"fill,omitempty"`
	Steps []Step `yaml:"steps" json:"steps"`
}

type Pattern struct {
	Name string `yaml:"name" json:"name"` // "index_sweep","rgb_channels"
	Ms   int    `yaml:"ms" json:"ms"`
}

type Repeat struct {
	Times int    `yaml:"times" json:"times"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Color is written as "#rrggbb", "#rgb" or [r, g, b].
type Color model.RGB

func (c Color) RGB() model.RGB { return model.RGB(c) }

func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var parts []int
		if err := n.Decode(&parts); err != nil {
			return err
		}
		return c.fromParts(parts)
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return c.fromHex(s)
}

func (c Color) MarshalYAML() (any, error) {
	return model.RGB(c).Hex(), nil
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var parts []int
	if err := json.Unmarshal(b, &parts); err == nil {
		return c.fromParts(parts)
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return c.fromHex(s)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(model.RGB(c).Hex())
}

func (c *Color) fromHex(s string) error {
	rgb, err := model.ParseHex(s)
	if err != nil {
		return err
	}
	*c = Color(rgb)
	return nil
}

func (c *Color) fromParts(parts []int) error {
	if len(parts) != 3 {
		return fmt.Errorf("%w: colour needs 3 components, got %d", model.ErrInvalid, len(parts))
	}
	*c = Color(model.ClampRGB(float64(parts[0]), float64(parts[1]), float64(parts[2])))
	return nil
}
