package led

import (
	"context"
	"image"
	"io"
	"sync"

	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/lumiseq/model"
)

// Drawer drives any periph display.Drawer one pixel per channel, such as an
// nrzled strip or the console screen.
type Drawer struct {
	dev    display.Drawer
	closer io.Closer

	mu  sync.Mutex
	img *image.NRGBA
}

// NewDrawer wraps dev. The channel count is the width of dev. closer, if
// set, is closed after the device is halted.
func NewDrawer(dev display.Drawer, closer io.Closer) *Drawer {
	b := dev.Bounds()
	return &Drawer{
		dev:    dev,
		closer: closer,
		img:    image.NewNRGBA(image.Rect(0, 0, b.Dx(), 1)),
	}
}

func (d *Drawer) Channels() int {
	return d.img.Rect.Dx()
}

func (d *Drawer) SetColor(_ context.Context, c model.RGB) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	px := c.NRGBA()
	for x := 0; x < d.img.Rect.Dx(); x++ {
		d.img.SetNRGBA(x, 0, px)
	}
	return d.flush()
}

func (d *Drawer) SetColors(_ context.Context, offset int, rgb []byte) error {
	if err := checkRange(offset, rgb, d.Channels()); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i+2 < len(rgb); i += 3 {
		c := model.RGB{R: rgb[i], G: rgb[i+1], B: rgb[i+2]}
		d.img.SetNRGBA(offset+i/3, 0, c.NRGBA())
	}
	return d.flush()
}

// flush must be called with mu held.
func (d *Drawer) flush() error {
	return d.dev.Draw(d.dev.Bounds(), d.img, image.Point{})
}

func (d *Drawer) String() string {
	return d.dev.String()
}

// Close turns the device off and releases it.
func (d *Drawer) Close() error {
	err := d.dev.Halt()
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
