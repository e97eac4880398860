package remotedram

import (
	"time"

	"github.com/google/uuid"
	"github.com/isamuradli/remotedram/kverr"
)

// ReadLocal and WriteLocal are the convenience path spec §9 directs
// be preserved: a server-mode driver may read or write its own
// storage map directly, bypassing the wire entirely. Calling either on
// a client-mode driver is a programming error, not a transport
// failure, so it reports FailedPrecondition rather than Unreachable.

// ReadLocal reads directly from the in-process storage map.
func (d *Driver) ReadLocal(key []byte) (ReadOutcome, error) {
	if d.store == nil {
		return ReadOutcome{}, kverr.New(kverr.FailedPrecondition, "ReadLocal is only available on a server-mode driver")
	}
	value, ok := d.store.Get(string(key))
	if !ok {
		return ReadOutcome{Found: false}, nil
	}
	return ReadOutcome{
		Found:           true,
		Value:           value,
		GenerationStamp: uuid.NewString(),
		Timestamp:       time.Now(),
	}, nil
}

// WriteLocal writes directly into the in-process storage map.
func (d *Driver) WriteLocal(key, value []byte) (WriteOutcome, error) {
	if d.store == nil {
		return WriteOutcome{}, kverr.New(kverr.FailedPrecondition, "WriteLocal is only available on a server-mode driver")
	}
	if value == nil {
		return WriteOutcome{}, kverr.New(kverr.InvalidArgument, "value must not be nil")
	}
	d.store.Store(string(key), value)
	return WriteOutcome{
		GenerationStamp: uuid.NewString(),
		Timestamp:       time.Now(),
	}, nil
}
