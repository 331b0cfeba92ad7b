package bus

import (
	"github.com/juju/errors"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const DefaultSpiSpeed = 20 * physic.MegaHertz

// MaxTxSize is spidev default bufsiz, larger writes are split.
const MaxTxSize = 4096

type SpiTxFunc func(send, recv []byte) error

type SPI struct {
	Tx   SpiTxFunc
	port spi.PortCloser
	name string
}

// OpenSPI opens one chip-select of the shared bus, e.g. "SPI0.0" display and "SPI0.1" touch.
// Empty speed means defSpeed.
func OpenSPI(name, speed string, mode int, defSpeed physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Annotatef(err, "SPI Open bus=%s", name)
	}
	f := defSpeed
	if speed != "" {
		if err = f.Set(speed); err != nil {
			port.Close()
			return nil, errors.Annotatef(err, "SPI speed parse=%s", speed)
		}
	}
	conn, err := port.Connect(f, spi.Mode(mode), 8)
	if err != nil {
		port.Close()
		return nil, errors.Annotatef(err, "SPI Connect bus=%s speed=%s", name, f.String())
	}
	return &SPI{Tx: conn.Tx, port: port, name: name}, nil
}

func (s *SPI) String() string { return s.name }

func (s *SPI) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// Write sends data in MaxTxSize chunks, no read back.
func Write(tx SpiTxFunc, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > MaxTxSize {
			n = MaxTxSize
		}
		if err := tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
