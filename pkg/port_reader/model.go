package port_reader

import (
	"io"
	"sync"
	"time"

	"github.com/p1bridge/dsmr_bridge/pkg/telegram"
)

// ReadingHandler receives each fully processed measurement set, after the
// datastore write attempt completed.
type ReadingHandler func(set *telegram.MeasurementSet)

type P1Reader struct {
	port            string
	baudrate        uint
	backoffBase     time.Duration
	backoffMax      time.Duration
	logRawTelegrams bool

	// The serial handle is owned exclusively by the acquisition loop and
	// never handed out.
	serialPort io.ReadWriteCloser
	openPort   func() (io.ReadWriteCloser, error)

	latestReading *telegram.MeasurementSet
	readingMutex  sync.RWMutex
}
