// internal/recorder/recorder.go
package recorder

import (
	"context"
	"errors"
	"log"

	"github.com/tamzrod/cyclic-store/internal/poller"
	"github.com/tamzrod/cyclic-store/internal/status"
	"github.com/tamzrod/cyclic-store/internal/store"
	"github.com/tamzrod/cyclic-store/internal/writer"
)

// Appender is the part of the store the recorder drives.
type Appender interface {
	RecordSize() int
	Write(record []byte) error
	Metrics() (store.Metrics, error)
}

// Recorder turns samples into store records and keeps the status
// snapshot in step with the store.
//
// Recorder owns its snapshot. It must be driven from one goroutine.
type Recorder struct {
	st   Appender
	sw   writer.StatusWriter // nil when status publishing is disabled
	snap status.Snapshot
}

// New wires a recorder to an initialized store. sw may be nil.
func New(st Appender, sw writer.StatusWriter) (*Recorder, error) {
	if st == nil {
		return nil, errors.New("recorder: store required")
	}
	r := &Recorder{st: st, sw: sw}

	m, err := st.Metrics()
	if err != nil {
		r.snap = status.Snapshot{Health: status.HealthNotInitialized, LastErrorCode: status.ErrorCode(err)}
		return r, err
	}
	r.snap = status.FromMetrics(m)
	return r, nil
}

// Snapshot is the current status as last computed.
func (r *Recorder) Snapshot() status.Snapshot { return r.snap }

// Publish delivers the current snapshot, if status is enabled.
func (r *Recorder) Publish() error {
	if r.sw == nil {
		return nil
	}
	return r.sw.WriteStatus(r.snap)
}

// Handle records one sample and refreshes the snapshot.
// A failed sample writes nothing and marks the store in error with the
// source code; counters keep their last known values.
func (r *Recorder) Handle(res poller.PollResult) error {
	if res.Err != nil {
		r.fail(status.CodeSource)
		return res.Err
	}

	rec, err := Encode(res, r.st.RecordSize())
	if err != nil {
		r.fail(status.CodeRecordSize)
		return err
	}

	if err := r.st.Write(rec); err != nil {
		r.fail(status.ErrorCode(err))
		return err
	}

	m, err := r.st.Metrics()
	if err != nil {
		r.fail(status.ErrorCode(err))
		return err
	}
	r.snap = status.FromMetrics(m)
	return nil
}

func (r *Recorder) fail(code uint16) {
	r.snap.Health = status.HealthError
	r.snap.LastErrorCode = code
}

// Run consumes samples until ctx is done or in is closed.
// Errors are logged, never fatal.
func (r *Recorder) Run(ctx context.Context, in <-chan poller.PollResult) {
	// Full block write on start (identity re-assert) if enabled.
	if err := r.Publish(); err != nil {
		log.Printf("status write failed on start: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-in:
			if !ok {
				return
			}
			if err := r.Handle(res); err != nil {
				log.Printf("record failed (source=%s): %v", res.Source, err)
			}
			if err := r.Publish(); err != nil {
				log.Printf("status write failed: %v", err)
			}
		}
	}
}
