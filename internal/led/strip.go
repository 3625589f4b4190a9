package led

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// DefaultStripFreq suits WS2812 class strips driven over SPI.
const DefaultStripFreq = 2500 * physic.KiloHertz

type StripOptions struct {
	// Port is the SPI port name, empty for the first available one.
	Port     string
	Channels int
	Freq     physic.Frequency
}

// OpenStrip opens a WS281x strip on an SPI port.
func OpenStrip(opts StripOptions) (*Drawer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	port, err := spireg.Open(opts.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", opts.Port, err)
	}
	d, err := NewStrip(port, opts)
	if err != nil {
		port.Close()
		return nil, err
	}
	d.closer = port
	return d, nil
}

// NewStrip drives a WS281x strip on an already open SPI port. The port is
// not closed by the returned Drawer.
func NewStrip(port spi.Port, opts StripOptions) (*Drawer, error) {
	if opts.Channels <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", opts.Channels)
	}
	if opts.Freq == 0 {
		opts.Freq = DefaultStripFreq
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: opts.Channels,
		Channels:  3,
		Freq:      opts.Freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := dev.Halt(); err != nil {
		return nil, err
	}
	return NewDrawer(dev, nil), nil
}

// NewConsole prints the channels as coloured blocks on the terminal.
func NewConsole(channels int) *Drawer {
	return NewDrawer(screen.New(channels), nil)
}
