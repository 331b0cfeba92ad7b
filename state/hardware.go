package state

import (
	"image"

	"github.com/juju/errors"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/log2"
)

const (
	DefaultFbDevice   = "/dev/fb0"
	DefaultPinChip    = "/dev/gpiochip0"
	DefaultMockWidth  = 480
	DefaultMockHeight = 320
)

func (g *Global) hardwareLog(cfg *Config) *log2.Log {
	log := g.Log.Clone(log2.LInfo)
	if cfg.Hardware.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	return log
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// optPin maps absent pin to not connected.
func optPin(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func (g *Global) openDisplay(cfg *Config) (display.Device, error) {
	dc := &cfg.Hardware.Display
	switch dc.Driver {
	case "", "mock":
		w, h := dc.Width, dc.Height
		if w <= 0 || h <= 0 {
			w, h = DefaultMockWidth, DefaultMockHeight
		}
		g.Log.Infof("display=mock size=%dx%d", w, h)
		return display.NewMock(image.Pt(w, h)), nil

	case "framebuffer":
		dev := orString(dc.FbDevice, DefaultFbDevice)
		fb, err := display.NewFb(dev)
		if err != nil {
			return nil, errors.Annotatef(err, "config: display.fb_device=%s", dev)
		}
		return fb, nil

	case "ili9488":
		if dc.DcPin <= 0 {
			return nil, errors.NotValidf("config: display.dc_pin=%d", dc.DcPin)
		}
		config := display.ILI9488Config{
			Width:        dc.Width,
			Height:       dc.Height,
			Rotation:     uint8(dc.Rotation),
			Invert:       dc.Invert,
			BGR:          dc.BGR,
			PinDC:        uint32(dc.DcPin),
			PinRST:       optPin(dc.RstPin),
			PinBacklight: optPin(dc.BacklightPin),
		}
		spiBus := orString(dc.Spi, cfg.Hardware.SpiBus)
		d, err := display.OpenILI9488(spiBus, cfg.Hardware.SpiSpeed, orString(cfg.Hardware.PinChip, DefaultPinChip), config)
		if err != nil {
			return nil, errors.Annotatef(err, "config: display=ili9488 spi=%s", spiBus)
		}
		return d, nil
	}
	return nil, errors.NotSupportedf("display.driver=%s", dc.Driver)
}

// openTouch may return nil,nil when touch is disabled.
func (g *Global) openTouch(cfg *Config) (touch.Device, error) {
	tc := &cfg.Hardware.Touch
	switch tc.Driver {
	case "none":
		g.Log.Infof("touch disabled")
		return nil, nil

	case "", "mock":
		return touch.NewMock(true), nil

	case "evdev":
		if tc.Device == "" {
			return nil, errors.NotValidf("config: touch.device empty")
		}
		t, err := touch.NewEvdev(tc.Device, g.hardwareLog(cfg))
		if err != nil {
			return nil, errors.Annotatef(err, "config: touch=%s", touch.EvdevTag)
		}
		return t, nil

	case "xpt2046":
		config := touch.XPT2046Config{Threshold: tc.Threshold, Samples: tc.Samples}
		spiBus := orString(tc.Spi, cfg.Hardware.SpiBus)
		t, err := touch.OpenXPT2046(spiBus, tc.SpiSpeed, orString(cfg.Hardware.PinChip, DefaultPinChip), optPin(tc.IrqPin), config)
		if err != nil {
			return nil, errors.Annotatef(err, "config: touch=xpt2046 spi=%s", spiBus)
		}
		return t, nil
	}
	return nil, errors.NotSupportedf("touch.driver=%s", tc.Driver)
}
