package display

import (
	"image"
	"image/color"
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/touchpanel/geom"
	"github.com/temoto/touchpanel/hardware/bus"
)

const (
	cmdSoftReset  = 0x01
	cmdInvertOff  = 0x20
	cmdInvertOn   = 0x21
	cmdColumnAddr = 0x2a
	cmdPageAddr   = 0x2b
	cmdMemWrite   = 0x2c
	cmdMadctl     = 0x36
	cmdPixelFmt   = 0x3a

	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlMV  = 0x20
	madctlBGR = 0x08

	// 18 bit per pixel, only format ILI9488 accepts over SPI
	pixelFmt666 = 0x66
)

type ILI9488Config struct {
	// native portrait size, default 320x480
	Width    int
	Height   int
	Rotation uint8
	Invert   bool
	BGR      bool
	PinDC    uint32
	// negative means line not connected
	PinRST       int
	PinBacklight int
}

type ILI9488 struct {
	tx    bus.SpiTxFunc
	lines gpio.Lineser
	dc    gpio.LineSetFunc
	rst   gpio.LineSetFunc
	led   gpio.LineSetFunc
	size  image.Point
	buf   []byte
	sleep func(time.Duration)
	close func() error
}

var _ Device = &ILI9488{}

type initStep struct {
	cmd  byte
	data []byte
}

var ili9488Init = []initStep{
	{0xe0, []byte{0x00, 0x03, 0x09, 0x08, 0x16, 0x0a, 0x3f, 0x78, 0x4c, 0x09, 0x0a, 0x08, 0x16, 0x1a, 0x0f}}, // positive gamma
	{0xe1, []byte{0x00, 0x16, 0x19, 0x03, 0x0f, 0x05, 0x32, 0x45, 0x46, 0x04, 0x0e, 0x0d, 0x35, 0x37, 0x0f}}, // negative gamma
	{0xc0, []byte{0x17, 0x15}},             // power control 1
	{0xc1, []byte{0x41}},                   // power control 2
	{0xc5, []byte{0x00, 0x12, 0x80}},       // VCOM
	{cmdPixelFmt, []byte{pixelFmt666}},     //
	{0xb0, []byte{0x00}},                   // interface mode
	{0xb1, []byte{0xa0}},                   // frame rate 60Hz
	{0xb4, []byte{0x02}},                   // 2-dot inversion
	{0xb6, []byte{0x02, 0x02, 0x3b}},       // display function
	{0xb7, []byte{0xc6}},                   // entry mode
	{0xf7, []byte{0xa9, 0x51, 0x2c, 0x82}}, // adjust control 3
}

// NewILI9488 takes ready SPI transfer and GPIO lines with DC (and optionally RST) requested as output.
// Runs reset and init sequence, ends with display on.
func NewILI9488(tx bus.SpiTxFunc, lines gpio.Lineser, config ILI9488Config) (*ILI9488, error) {
	return newILI9488(tx, lines, config, time.Sleep)
}

func newILI9488(tx bus.SpiTxFunc, lines gpio.Lineser, config ILI9488Config, sleep func(time.Duration)) (*ILI9488, error) {
	if config.Width == 0 || config.Height == 0 {
		config.Width, config.Height = 320, 480
	}
	d := &ILI9488{
		tx:    tx,
		lines: lines,
		dc:    lines.SetFunc(config.PinDC),
		size:  image.Point{X: config.Width, Y: config.Height},
		sleep: sleep,
	}
	if config.Rotation&1 == 1 {
		d.size.X, d.size.Y = d.size.Y, d.size.X
	}
	if config.PinRST >= 0 {
		d.rst = lines.SetFunc(uint32(config.PinRST))
	}
	if config.PinBacklight >= 0 {
		d.led = lines.SetFunc(uint32(config.PinBacklight))
	}
	if err := d.init(config); err != nil {
		return nil, errors.Annotate(err, "ili9488 init")
	}
	return d, nil
}

// OpenILI9488 opens SPI port and GPIO chip, Close releases both.
func OpenILI9488(spiBus, spiSpeed, gpioChip string, config ILI9488Config) (*ILI9488, error) {
	port, err := bus.OpenSPI(spiBus, spiSpeed, 0, bus.DefaultSpiSpeed)
	if err != nil {
		return nil, err
	}
	chip, err := gpio.Open(gpioChip, "touchpanel-display")
	if err != nil {
		port.Close()
		return nil, errors.Annotatef(err, "gpio open chip=%s", gpioChip)
	}
	pins := []uint32{config.PinDC}
	if config.PinRST >= 0 {
		pins = append(pins, uint32(config.PinRST))
	}
	if config.PinBacklight >= 0 {
		pins = append(pins, uint32(config.PinBacklight))
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "touchpanel-display", pins...)
	if err != nil {
		chip.Close()
		port.Close()
		return nil, errors.Annotatef(err, "gpio lines=%v", pins)
	}
	d, err := NewILI9488(port.Tx, lines, config)
	if err != nil {
		lines.Close()
		chip.Close()
		port.Close()
		return nil, err
	}
	d.close = func() error {
		lines.Close()
		chip.Close()
		return port.Close()
	}
	return d, nil
}

func madctl(rotation uint8, bgr bool) byte {
	var b byte
	switch rotation & 3 {
	case 0:
		b = madctlMX
	case 1:
		b = madctlMV
	case 2:
		b = madctlMY
	case 3:
		b = madctlMX | madctlMY | madctlMV
	}
	if bgr {
		b |= madctlBGR
	}
	return b
}

func (d *ILI9488) init(config ILI9488Config) error {
	if d.rst != nil {
		for _, step := range []struct {
			v byte
			d time.Duration
		}{{1, 5 * time.Millisecond}, {0, 20 * time.Millisecond}, {1, 150 * time.Millisecond}} {
			d.rst(step.v)
			if err := d.lines.Flush(); err != nil {
				return errors.Annotate(err, "reset pin")
			}
			d.sleep(step.d)
		}
	}
	if err := d.send(cmdSoftReset, nil); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)
	for _, step := range ili9488Init {
		if err := d.send(step.cmd, step.data); err != nil {
			return err
		}
	}
	if err := d.send(cmdMadctl, []byte{madctl(config.Rotation, config.BGR)}); err != nil {
		return err
	}
	inv := byte(cmdInvertOff)
	if config.Invert {
		inv = cmdInvertOn
	}
	if err := d.send(inv, nil); err != nil {
		return err
	}
	if err := d.send(byte(SleepOut), nil); err != nil {
		return err
	}
	d.sleep(120 * time.Millisecond)
	if err := d.send(byte(DisplayOn), nil); err != nil {
		return err
	}
	d.sleep(20 * time.Millisecond)
	if d.led != nil {
		d.led(1)
		if err := d.lines.Flush(); err != nil {
			return errors.Annotate(err, "backlight pin")
		}
	}
	return nil
}

func (d *ILI9488) setDC(v byte) error {
	d.dc(v)
	return d.lines.Flush()
}

// send writes command byte with DC low, then parameters with DC high.
func (d *ILI9488) send(cmd byte, data []byte) error {
	if err := d.setDC(0); err != nil {
		return errors.Annotatef(err, "cmd=%02x dc", cmd)
	}
	if err := d.tx([]byte{cmd}, nil); err != nil {
		return errors.Annotatef(err, "cmd=%02x", cmd)
	}
	if err := d.setDC(1); err != nil {
		return errors.Annotatef(err, "cmd=%02x dc", cmd)
	}
	if len(data) != 0 {
		if err := bus.Write(d.tx, data); err != nil {
			return errors.Annotatef(err, "cmd=%02x data", cmd)
		}
	}
	return nil
}

func (d *ILI9488) window(r image.Rectangle) error {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	if err := d.send(cmdColumnAddr, []byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}); err != nil {
		return err
	}
	if err := d.send(cmdPageAddr, []byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}); err != nil {
		return err
	}
	return d.send(cmdMemWrite, nil)
}

// grow reuses pixel buffer, only grows.
func (d *ILI9488) grow(n int) []byte {
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	return d.buf[:n]
}

func put666(b []byte, c color.RGBA) {
	b[0] = c.R & 0xfc
	b[1] = c.G & 0xfc
	b[2] = c.B & 0xfc
}

func (d *ILI9488) Size() image.Point { return d.size }

func (d *ILI9488) Fill(r geom.Rect, c color.RGBA) error {
	target := r.Image().Intersect(image.Rectangle{Max: d.size})
	if target.Empty() {
		return nil
	}
	if err := d.window(target); err != nil {
		return errors.Annotatef(err, "fill %s", r)
	}
	total := target.Dx() * target.Dy() * 3
	chunk := d.grow(minInt(total, bus.MaxTxSize/3*3))
	for i := 0; i < len(chunk); i += 3 {
		put666(chunk[i:], c)
	}
	for total > 0 {
		n := minInt(total, len(chunk))
		if err := d.tx(chunk[:n], nil); err != nil {
			return errors.Annotatef(err, "fill %s", r)
		}
		total -= n
	}
	return nil
}

func (d *ILI9488) Blit(x, y int, src *image.RGBA, sr image.Rectangle) error {
	target, from := clip(d.size, x, y, sr)
	if target.Empty() {
		return nil
	}
	if err := d.window(target); err != nil {
		return errors.Annotatef(err, "blit %s", geom.FromImage(target))
	}
	w, h := from.Dx(), from.Dy()
	b := d.grow(w * h * 3)
	i := 0
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			put666(b[i:], src.RGBAAt(from.Min.X+xx, from.Min.Y+yy))
			i += 3
		}
	}
	return errors.Annotatef(bus.Write(d.tx, b), "blit %s", geom.FromImage(target))
}

func (d *ILI9488) Command(op Opcode) error {
	return errors.Annotatef(d.send(byte(op), nil), "command %s", op)
}

func (d *ILI9488) Close() error {
	if d.close != nil {
		return d.close()
	}
	return nil
}

func minInt(i1, i2 int) int {
	if i1 <= i2 {
		return i1
	}
	return i2
}
