// Package remotedram implements the driver facade described by
// spec §4.F: it presents the four-operation kvstore contract (Read,
// Write, DeleteRange, List) on top of the transport/server/client
// packages, dispatching server-mode opens to the local storage map
// and client-mode opens to the wire.
package remotedram

import (
	"context"
	"io"
	"time"

	"github.com/isamuradli/remotedram/client"
	"github.com/isamuradli/remotedram/internal/metrics"
	"github.com/isamuradli/remotedram/kverr"
	"github.com/isamuradli/remotedram/logging"
	"github.com/isamuradli/remotedram/server"
	"github.com/isamuradli/remotedram/storage"
	"github.com/isamuradli/remotedram/transport"
	"github.com/isamuradli/remotedram/wire"
	golog "github.com/lni/dragonboat/v4/logger"
)

var log golog.ILogger = logging.Get("remotedram")

// Config is the plain JSON-taggable configuration struct spec §6
// describes: a JSON-like object with driver/listen_addr/remote_addr.
type Config struct {
	Driver     string `json:"driver"`
	ListenAddr string `json:"listen_addr,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`

	// MaxMessageSize overrides wire.DefaultMaxMessageSize when nonzero
	// (spec §4.A / §9 open question 5).
	MaxMessageSize int `json:"max_message_size,omitempty"`
}

// ReadOutcome mirrors the table in spec §4.F: a present value with
// its generation stamp and timestamp, or a clean miss.
type ReadOutcome struct {
	Found           bool
	Value           []byte
	GenerationStamp string
	Timestamp       time.Time
}

// WriteOutcome is returned on a successful write.
type WriteOutcome struct {
	GenerationStamp string
	Timestamp       time.Time
}

// contract is the local stand-in for the out-of-scope external
// kvstore registry contract (spec §1's "enclosing kvstore driver
// registry" is an out-of-scope collaborator; this is the shape *Driver
// plugs into it with). It exists purely to pin the interface at
// compile time via the assertion below.
type contract interface {
	Read(ctx context.Context, key []byte) (ReadOutcome, error)
	Write(ctx context.Context, key, value []byte) (WriteOutcome, error)
	DeleteRange(ctx context.Context, start, end []byte) error
	List(ctx context.Context, sink func([]byte) error) error
	Close() error
}

var _ contract = (*Driver)(nil)

// Driver is the driver facade opened by Open, in exactly one of server
// or client mode.
type Driver struct {
	cfg Config

	// server mode
	mgr   *transport.Manager
	store *storage.Map
	ln    *transport.Listener

	// client mode
	c *client.Client
}

// Open validates cfg and opens the driver in server or client mode
// (spec §4.F: "exactly one of listen_addr or remote_addr must be
// set, else InvalidArgument").
func Open(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Driver != "" && cfg.Driver != DriverName {
		return nil, kverr.New(kverr.InvalidArgument, "driver %q does not match %q", cfg.Driver, DriverName)
	}

	hasListen := cfg.ListenAddr != ""
	hasRemote := cfg.RemoteAddr != ""
	if hasListen == hasRemote {
		return nil, kverr.New(kverr.InvalidArgument, "exactly one of listen_addr or remote_addr must be set")
	}

	if hasListen {
		return openServer(cfg)
	}
	return openClient(cfg)
}

func openServer(cfg Config) (*Driver, error) {
	mgr := transport.NewManager(nil, wireCodec(cfg))
	store := storage.NewMap()
	srv := server.New(mgr, store)

	ln, err := mgr.Listen(cfg.ListenAddr, srv.Handler())
	if err != nil {
		return nil, err
	}

	log.Infof("remote_dram serving on %s", cfg.ListenAddr)

	return &Driver{cfg: cfg, mgr: mgr, store: store, ln: ln}, nil
}

func openClient(cfg Config) (*Driver, error) {
	mgr := transport.NewManager(nil, wireCodec(cfg))

	c, err := client.Dial(mgr, cfg.RemoteAddr)
	if err != nil {
		mgr.Shutdown()
		return nil, err
	}

	return &Driver{cfg: cfg, mgr: mgr, c: c}, nil
}

// Read implements the Driver contract (spec §4.F table).
func (d *Driver) Read(ctx context.Context, key []byte) (ReadOutcome, error) {
	if d.c != nil {
		res, err := d.c.Read(ctx, key)
		if err != nil {
			return ReadOutcome{}, err
		}
		if !res.Found {
			return ReadOutcome{Found: false}, nil
		}
		return ReadOutcome{
			Found:           true,
			Value:           res.Value,
			GenerationStamp: res.GenerationStamp,
			Timestamp:       res.Timestamp,
		}, nil
	}
	return d.ReadLocal(key)
}

// Write implements the Driver contract.
func (d *Driver) Write(ctx context.Context, key, value []byte) (WriteOutcome, error) {
	if value == nil {
		return WriteOutcome{}, kverr.New(kverr.InvalidArgument, "value must not be nil")
	}
	if d.c != nil {
		res, err := d.c.Write(ctx, key, value)
		if err != nil {
			return WriteOutcome{}, err
		}
		return WriteOutcome{GenerationStamp: res.GenerationStamp, Timestamp: res.Timestamp}, nil
	}
	return d.WriteLocal(key, value)
}

// DeleteRange is Unimplemented (spec §4.F, Non-goal "key-range
// deletion").
func (d *Driver) DeleteRange(ctx context.Context, start, end []byte) error {
	return kverr.New(kverr.Unimplemented, "delete_range is not implemented")
}

// List is Unimplemented. The sink's signature carries no error, so the
// Unimplemented error is not passed to it: the sink is called once
// with a nil key, and List then returns Unimplemented to the caller
// (or the sink's own error instead, when that is non-nil and not
// io.EOF).
func (d *Driver) List(ctx context.Context, sink func([]byte) error) error {
	err := kverr.New(kverr.Unimplemented, "list is not implemented")
	if sinkErr := sink(nil); sinkErr != nil && sinkErr != io.EOF {
		return sinkErr
	}
	return err
}

// Close tears down whichever mode this driver was opened in.
func (d *Driver) Close() error {
	if d.c != nil {
		d.c.Close()
		d.mgr.Shutdown()
		return nil
	}
	if d.ln != nil {
		d.ln.Close()
	}
	d.mgr.Shutdown()
	return nil
}

func wireCodec(cfg Config) wire.Codec {
	return wire.Codec{MaxMessageSize: cfg.MaxMessageSize}
}

// Metrics exposes this driver's transport manager instrumentation, for
// the serve CLI's /metrics handler.
func (d *Driver) Metrics() *metrics.Set {
	return d.mgr.Metrics()
}
