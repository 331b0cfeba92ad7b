// Package bus serializes transactions on the SPI link shared by display and touch controller.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/temoto/touchpanel/log2"
)

type Kind uint8

const (
	KindOther Kind = iota
	KindBlit
	KindCommand
	KindTouch
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindBlit:
		return "blit"
	case KindCommand:
		return "command"
	case KindTouch:
		return "touch"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

type Stat struct {
	Tx    uint32
	Error uint32
	Kind  [kindCount]uint32
}

// Bus is one exclusive lock held for the duration of each discrete transaction.
// No fairness or priority beyond sync.Mutex.
type Bus struct {
	Log  *log2.Log
	lk   sync.Mutex
	stat Stat
}

func New(log *log2.Log) *Bus { return &Bus{Log: log} }

func (b *Bus) Tx(kind Kind, f func() error) error {
	b.lk.Lock()
	defer b.lk.Unlock()

	atomic.AddUint32(&b.stat.Tx, 1)
	if kind < kindCount {
		atomic.AddUint32(&b.stat.Kind[kind], 1)
	}
	err := f()
	if err != nil {
		atomic.AddUint32(&b.stat.Error, 1)
		b.Log.Debugf("bus tx kind=%s err=%v", kind, err)
	}
	return err
}

func (s Stat) String() string {
	return fmt.Sprintf("tx=%d err=%d blit=%d command=%d touch=%d",
		s.Tx, s.Error, s.Kind[KindBlit], s.Kind[KindCommand], s.Kind[KindTouch])
}

func (b *Bus) Stat() Stat {
	var s Stat
	s.Tx = atomic.LoadUint32(&b.stat.Tx)
	s.Error = atomic.LoadUint32(&b.stat.Error)
	for i := range s.Kind {
		s.Kind[i] = atomic.LoadUint32(&b.stat.Kind[i])
	}
	return s
}
