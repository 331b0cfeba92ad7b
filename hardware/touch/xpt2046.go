package touch

import (
	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/touchpanel/hardware/bus"
	"periph.io/x/periph/conn/physic"
)

// 12 bit differential conversions, power down between reads keeps PENIRQ enabled.
const (
	cmdReadY  = 0x90
	cmdReadZ1 = 0xb0
	cmdReadZ2 = 0xc0
	cmdReadX  = 0xd0

	// controller is specified up to 2.5MHz clock
	DefaultSpiSpeed = 2 * physic.MegaHertz

	// polled mode press threshold
	DefaultThreshold = 300
	defaultSamples   = 3
)

type XPT2046Config struct {
	Threshold int
	Samples   int
}

type XPT2046 struct {
	tx        bus.SpiTxFunc
	irq       gpio.Lineser
	irqLine   uint32
	threshold int
	samples   int
	buf       [3]byte
	close     func() error
}

var _ Device = &XPT2046{}

// NewXPT2046 irq may be nil, then Pressed polls pressure over SPI.
func NewXPT2046(tx bus.SpiTxFunc, irq gpio.Lineser, irqLine uint32, config XPT2046Config) *XPT2046 {
	if config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}
	if config.Samples <= 0 {
		config.Samples = defaultSamples
	}
	return &XPT2046{
		tx:        tx,
		irq:       irq,
		irqLine:   irqLine,
		threshold: config.Threshold,
		samples:   config.Samples,
	}
}

// OpenXPT2046 irqPin negative means no IRQ line.
func OpenXPT2046(spiBus, spiSpeed, gpioChip string, irqPin int, config XPT2046Config) (*XPT2046, error) {
	port, err := bus.OpenSPI(spiBus, spiSpeed, 0, DefaultSpiSpeed)
	if err != nil {
		return nil, err
	}
	if irqPin < 0 {
		t := NewXPT2046(port.Tx, nil, 0, config)
		t.close = port.Close
		return t, nil
	}
	chip, err := gpio.Open(gpioChip, "touchpanel-touch")
	if err != nil {
		port.Close()
		return nil, errors.Annotatef(err, "gpio open chip=%s", gpioChip)
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_INPUT, "touchpanel-touch", uint32(irqPin))
	if err != nil {
		chip.Close()
		port.Close()
		return nil, errors.Annotatef(err, "gpio irq line=%d", irqPin)
	}
	t := NewXPT2046(port.Tx, lines, uint32(irqPin), config)
	t.close = func() error {
		lines.Close()
		chip.Close()
		return port.Close()
	}
	return t, nil
}

func (t *XPT2046) PressedOnBus() bool { return t.irq == nil }

func (t *XPT2046) Pressed() (bool, error) {
	if t.irq != nil {
		data, err := t.irq.Read()
		if err != nil {
			return false, errors.Annotate(err, "xpt2046 irq read")
		}
		// PENIRQ active low
		return data.Values[t.irqLineIndex()] == 0, nil
	}
	z, err := t.pressure()
	if err != nil {
		return false, err
	}
	return z >= t.threshold, nil
}

func (t *XPT2046) irqLineIndex() int {
	for i, l := range t.irq.LineOffsets() {
		if l == t.irqLine {
			return i
		}
	}
	return 0
}

func (t *XPT2046) Sample() (Raw, error) {
	z, err := t.pressure()
	if err != nil {
		return Raw{}, err
	}
	var sx, sy int
	for i := 0; i < t.samples; i++ {
		x, err := t.read(cmdReadX)
		if err != nil {
			return Raw{}, err
		}
		y, err := t.read(cmdReadY)
		if err != nil {
			return Raw{}, err
		}
		sx += x
		sy += y
	}
	return Raw{X: sx / t.samples, Y: sy / t.samples, Z: z}, nil
}

func (t *XPT2046) pressure() (int, error) {
	z1, err := t.read(cmdReadZ1)
	if err != nil {
		return 0, err
	}
	z2, err := t.read(cmdReadZ2)
	if err != nil {
		return 0, err
	}
	return z1 + 4095 - z2, nil
}

func (t *XPT2046) read(cmd byte) (int, error) {
	send := [3]byte{cmd, 0, 0}
	if err := t.tx(send[:], t.buf[:]); err != nil {
		return 0, errors.Annotatef(err, "xpt2046 cmd=%02x", cmd)
	}
	return (int(t.buf[1])<<8 | int(t.buf[2])) >> 3, nil
}

func (t *XPT2046) Close() error {
	if t.close != nil {
		return t.close()
	}
	return nil
}
