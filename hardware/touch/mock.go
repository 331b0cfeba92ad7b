package touch

import "sync"

type Mock struct {
	mu      sync.Mutex
	down    bool
	raw     Raw
	err     error
	onBus   bool
	samples int
	presses int
}

var _ Device = &Mock{}

// NewMock with onBus=true behaves like polled controller without IRQ line.
func NewMock(onBus bool) *Mock { return &Mock{onBus: onBus} }

// Touch holds finger down at raw until Release.
func (m *Mock) Touch(raw Raw) {
	m.mu.Lock()
	m.down, m.raw = true, raw
	m.mu.Unlock()
}

func (m *Mock) Release() {
	m.mu.Lock()
	m.down = false
	m.mu.Unlock()
}

func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Mock) Pressed() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presses++
	if m.err != nil {
		return false, m.err
	}
	return m.down, nil
}

func (m *Mock) Sample() (Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples++
	if m.err != nil {
		return Raw{}, m.err
	}
	return m.raw, nil
}

func (m *Mock) PressedOnBus() bool { return m.onBus }
func (m *Mock) Close() error       { return nil }

// Counts returns number of Pressed and Sample calls.
func (m *Mock) Counts() (presses, samples int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.presses, m.samples
}
