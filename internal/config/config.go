package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type PowerCfg struct {
	WhiteCap float64 `yaml:"white_cap"`
	ChanMA   float64 `yaml:"chan_ma"`
	BudgetMA float64 `yaml:"budget_ma"`
	Knee     float64 `yaml:"knee"`
}

type SPI struct {
	Port    string `yaml:"port"`     // e.g. /dev/spidev0.0, empty for the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2500000
}

type Preview struct {
	Addr string `yaml:"addr"` // e.g. :8080, empty disables the preview server
}

type Log struct {
	Level string `yaml:"level"`
}

type Config struct {
	Driver     string  `yaml:"driver"` // "sim" | "console" | "spi"
	Channels   int     `yaml:"channels"`
	Brightness float64 `yaml:"brightness"`
	MaxFPS     int     `yaml:"max_fps"`
	FlickerMs  int     `yaml:"flicker_ms"`

	Power   PowerCfg `yaml:"power"`
	SPI     SPI      `yaml:"spi,omitempty"`
	Preview Preview  `yaml:"preview,omitempty"`
	Log     Log      `yaml:"log"`
}

func Defaults() Config {
	return Config{
		Driver:     "sim",
		Channels:   8,
		Brightness: 1,
		MaxFPS:     60,
		FlickerMs:  16,
		Power: PowerCfg{
			ChanMA: 20,
			Knee:   0.9,
		},
		SPI: SPI{SpeedHz: 2500000},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults, so absent keys keep their default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Defaults()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sim", "console", "spi":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be greater than 0, got %d", c.Channels)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness must be within [0,1], got %v", c.Brightness)
	}
	if c.MaxFPS < 0 {
		return fmt.Errorf("max_fps must not be negative, got %d", c.MaxFPS)
	}
	return nil
}
