// Package transport implements the process-wide transport manager
// (spec §4.C): it owns connection lifecycle, allocates request ids,
// owns the two pending-operation tables, and drives response delivery
// back to whichever promise is waiting. remotedram.Open builds one
// Manager per driver instance (client or server mode); Default offers
// a lazily-initialized process-wide one.
package transport

import (
	"net"
	"sync"

	"github.com/isamuradli/remotedram/internal/metrics"
	"github.com/isamuradli/remotedram/logging"
	"github.com/isamuradli/remotedram/wire"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// completionWorkers is the fixed pool size draining the completion
// queue: a bounded worker pool instead of an unbounded
// goroutine-per-callback.
const completionWorkers = 4

// completionQueueSize bounds how many finished-but-not-yet-delivered
// completions can be buffered before a slow completion worker applies
// backpressure to the read loop that produced them.
const completionQueueSize = 256

// Manager is the transport manager described by spec §4.C. NewManager
// constructs an independent, explicitly passed handle (this is what
// remotedram.Open and the tests use); Default() returns a
// lazily-initialized process-wide instance for call sites that don't
// carry their own handle.
type Manager struct {
	connector Connector
	codec     wire.Codec

	mu           sync.Mutex // guards everything below except pendingWrite/pendingRead/bufferPool, which manage their own concurrency
	nextID       uint64
	listener     net.Listener
	serverConns  []net.Conn    // server's view of connected clients (vector #1)
	clientConns  []*ClientConn // driver-opened client endpoints (vector #2)
	shuttingDown bool
	initialized  bool

	// pendingWrite/pendingRead are the write/read pending-operation
	// tables (spec §3, §5 "Shared resources"). They are backed by a
	// lock-free concurrent map keyed by request id rather than living
	// under mu, since each entry's Store/Load/Delete is independent of
	// the rest of the manager's state.
	pendingWrite *xsync.MapOf[uint64, chan WriteOutcome]
	pendingRead  *xsync.MapOf[uint64, chan ReadOutcome]

	// bufferPool recycles the fixed-capacity receive buffers read loops
	// decode frames into, so a busy connection doesn't allocate a fresh
	// max-size buffer per inbound message.
	bufferPool *sync.Pool

	completionCh chan completion
	workersWG    sync.WaitGroup
	stopWorkers  chan struct{}

	metrics *metrics.Set
	log     logger.ILogger
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
)

// Default returns the process-wide lazily-initialized Manager, the
// ergonomic-parity fallback for call sites that don't carry their own
// *Manager handle.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultMgr = NewManager(nil, wire.Codec{})
	})
	return defaultMgr
}

// NewManager constructs an explicit transport manager. connector
// defaults to transport/tcp.Connector{} when nil.
func NewManager(connector Connector, codec wire.Codec) *Manager {
	maxSize := codec.MaxSize()
	m := &Manager{
		connector:    connector,
		codec:        codec,
		nextID:       1,
		pendingWrite: xsync.NewMapOf[uint64, chan WriteOutcome](),
		pendingRead:  xsync.NewMapOf[uint64, chan ReadOutcome](),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, maxSize)
			},
		},
		completionCh: make(chan completion, completionQueueSize),
		stopWorkers:  make(chan struct{}),
		metrics:      metrics.NewSet("remote_dram"),
		log:          logging.Get("transport"),
	}
	m.startCompletionWorkers()
	m.initialized = true
	return m
}

// checkReady rejects use of a manager that was never constructed
// through NewManager/Default (spec §7's FailedPrecondition "manager
// used before initialization") or that has already been shut down.
func (m *Manager) checkReady() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return notInitializedErr()
	}
	if m.shuttingDown {
		return shutdownErr()
	}
	return nil
}

// Metrics exposes this manager's instrumentation set, for tests and for
// the serve CLI's /metrics handler.
func (m *Manager) Metrics() *metrics.Set { return m.metrics }

// NextRequestID allocates the next monotonically increasing request id
// (spec §4.C: "next_id starts at 1 and is incremented under the manager
// mutex. Overflow is not handled").
func (m *Manager) NextRequestID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id
}

func (m *Manager) isShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shuttingDown
}

// registerWrite installs a pending-write entry and returns the channel
// its eventual WriteOutcome will arrive on. Entries are created at
// send-post time and removed exactly once, by completeWrite, by
// discardWrite (when the send that was supposed to produce a
// completion never went out), or by Shutdown (spec §3).
func (m *Manager) registerWrite(id uint64) chan WriteOutcome {
	ch := make(chan WriteOutcome, 1)
	m.pendingWrite.Store(id, ch)
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
	return ch
}

func (m *Manager) registerRead(id uint64) chan ReadOutcome {
	ch := make(chan ReadOutcome, 1)
	m.pendingRead.Store(id, ch)
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
	return ch
}

// discardWrite/discardRead remove a pending entry without resolving it,
// for a caller that registered the entry but then failed to actually
// send the request it was waiting on. Without this, a Send failure
// between registration and transmission would leak the table slot
// until Shutdown.
func (m *Manager) discardWrite(id uint64) {
	m.pendingWrite.Delete(id)
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
}

func (m *Manager) discardRead(id uint64) {
	m.pendingRead.Delete(id)
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
}

// completeWrite resolves and removes a pending write. A completion for
// an unknown id is ignored (spec §4.C).
func (m *Manager) completeWrite(id uint64, outcome WriteOutcome) {
	ch, ok := m.pendingWrite.Load(id)
	if ok {
		m.pendingWrite.Delete(id)
	}
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
	if ok {
		ch <- outcome
	}
}

func (m *Manager) completeRead(id uint64, outcome ReadOutcome) {
	ch, ok := m.pendingRead.Load(id)
	if ok {
		m.pendingRead.Delete(id)
	}
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
	if ok {
		ch <- outcome
	}
}

// startCompletionWorkers launches the fixed worker pool draining
// completionCh: producers (read loops) only ever
// enqueue; the workers are the sole callers of completeWrite/
// completeRead, so a slow or re-entrant resolution never blocks a
// connection's read loop.
func (m *Manager) startCompletionWorkers() {
	for i := 0; i < completionWorkers; i++ {
		m.workersWG.Add(1)
		go func() {
			defer m.workersWG.Done()
			for {
				select {
				case c := <-m.completionCh:
					if c.isWrite {
						m.completeWrite(c.id, c.write)
					} else {
						m.completeRead(c.id, c.read)
					}
				case <-m.stopWorkers:
					return
				}
			}
		}()
	}
}

// dispatchResponse decodes a response message into a completion and
// enqueues it, called from a ClientConn's readLoop. Once a message is
// confirmed to be response-shaped, which of the two pending tables it
// belongs to is decided by tag/mask matching (wire.MatchesTag), not by
// comparing the exact Type value — the tag class is what spec §3 says
// routing is keyed on.
func (m *Manager) dispatchResponse(msg wire.Message) {
	var c completion
	c.id = msg.Header.RequestID

	if !wire.IsResponse(msg.Header.Type) {
		m.log.Warningf("unexpected response type 0x%x for request %d", msg.Header.Type, msg.Header.RequestID)
		return
	}

	switch {
	case wire.MatchesTag(msg.Header.Type, wire.TypeWriteResponse):
		c.isWrite = true
		if msg.StatusCode != wire.StatusOK {
			c.write = WriteOutcome{Err: statusError(msg.StatusCode)}
		}
	case wire.MatchesTag(msg.Header.Type, wire.TypeReadResponse):
		c.isWrite = false
		c.read = readOutcomeFromMessage(msg)
	default:
		m.log.Warningf("unexpected response type 0x%x for request %d", msg.Header.Type, msg.Header.RequestID)
		return
	}

	select {
	case m.completionCh <- c:
	case <-m.stopWorkers:
	}
}

// maxSaneValueLength is the client-side sanity check from spec §4.E:
// "if value_length exceeds 1,000,000 ... treat as absent".
const maxSaneValueLength = 1_000_000

func readOutcomeFromMessage(msg wire.Message) ReadOutcome {
	if msg.StatusCode != wire.StatusOK {
		return ReadOutcome{Found: false}
	}
	if msg.Header.ValueLength > maxSaneValueLength {
		return ReadOutcome{Found: false}
	}
	return ReadOutcome{Found: true, Value: msg.Value}
}

// failAllPendingOnConn is invoked when a ClientConn's connection dies
// unexpectedly (spec §4.E: "A connection error on the endpoint
// delivers errors to all in-flight promises through the transport's
// error handler"). Since request ids are per-manager, not
// per-connection, and one ClientConn is the only writer/reader on its
// connection, this simply fails every pending op currently registered
// — acceptable because a single driver instance owns exactly one
// ClientConn (spec §3: "Client endpoint: one per client-mode driver
// open").
func (m *Manager) failAllPendingOnConn(err error) {
	m.pendingWrite.Range(func(id uint64, ch chan WriteOutcome) bool {
		ch <- WriteOutcome{Err: err}
		m.pendingWrite.Delete(id)
		return true
	})
	m.pendingRead.Range(func(id uint64, ch chan ReadOutcome) bool {
		ch <- ReadOutcome{Found: false, Err: err}
		m.pendingRead.Delete(id)
		return true
	})
	m.metrics.SetPendingCount(m.pendingWrite.Size() + m.pendingRead.Size())
}

func statusError(code uint32) error {
	return responseStatusError{code: code}
}

type responseStatusError struct{ code uint32 }

func (e responseStatusError) Error() string {
	return "server reported non-OK status"
}
