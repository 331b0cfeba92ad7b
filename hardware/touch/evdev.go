package touch

import (
	"io"
	"os"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	"github.com/temoto/touchpanel/log2"
)

const EvdevTag = "dev-input-event"

// linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	absX        = 0x00
	absY        = 0x01
	absPressure = 0x18
	btnTouch    = 0x14a

	// reported when device has no ABS_PRESSURE axis
	NoPressureZ = 255
)

// Evdev folds kernel touchscreen events into latest snapshot.
// Reader goroutine only records, Pressed/Sample are polled by frame loop.
type Evdev struct {
	Log  *log2.Log
	f    io.ReadCloser
	done chan struct{}

	mu          sync.Mutex
	cur         Raw
	down        bool
	err         error
	pending     Raw
	pendingDown bool
	hasPressure bool
}

var _ Device = &Evdev{}

func NewEvdev(device string, log *log2.Log) (*Evdev, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "%s open device=%s", EvdevTag, device)
	}
	return newEvdev(f, log), nil
}

func newEvdev(f io.ReadCloser, log *log2.Log) *Evdev {
	e := &Evdev{Log: log, f: f, done: make(chan struct{})}
	go e.reader()
	return e
}

func (e *Evdev) reader() {
	defer close(e.done)
	for {
		ie, err := inputevent.ReadOne(e.f)
		if err != nil {
			e.mu.Lock()
			e.err = err
			e.down = false
			e.mu.Unlock()
			if err != io.EOF {
				e.Log.Errorf("%s err=%v", EvdevTag, err)
			}
			return
		}
		e.handle(ie)
	}
}

func (e *Evdev) handle(ie inputevent.InputEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch ie.Type {
	case evAbs:
		switch ie.Code {
		case absX:
			e.pending.X = int(ie.Value)
		case absY:
			e.pending.Y = int(ie.Value)
		case absPressure:
			e.pending.Z = int(ie.Value)
			e.hasPressure = true
		}
	case evKey:
		if ie.Code == btnTouch {
			e.pendingDown = ie.Value != int32(inputevent.KeyStateUp)
		}
	case evSyn:
		e.cur = e.pending
		if !e.hasPressure {
			e.cur.Z = NoPressureZ
		}
		e.down = e.pendingDown
		e.Log.Debugf("%s down=%t %s", EvdevTag, e.down, e.cur.String())
	}
}

func (e *Evdev) Pressed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return false, e.stopped()
	}
	return e.down, nil
}

func (e *Evdev) Sample() (Raw, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return Raw{}, e.stopped()
	}
	return e.cur, nil
}

// stopped requires e.mu held.
func (e *Evdev) stopped() error {
	return errors.Wrapf(e.err, ErrStopped, "%s err=%v", EvdevTag, e.err)
}

func (e *Evdev) PressedOnBus() bool { return false }

func (e *Evdev) Close() error {
	err := e.f.Close()
	<-e.done
	return err
}
