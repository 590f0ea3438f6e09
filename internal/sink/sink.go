// Package sink records scored attempts on a best-effort basis.
//
// A Notifier owns a bounded queue and a single worker goroutine. Callers
// hand it rows without blocking; append failures are logged and counted but
// never reach the request that produced the row.
package sink

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gemstone08/circle/internal/monitoring"
)

// TimestampLayout is the spreadsheet-friendly timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Row is one submission as recorded by a sink.
type Row struct {
	ID        string
	Timestamp time.Time
	Score     int
	DurationS float64
	Sigma     float64
	SigmaRel  float64
	NumPoints int
	ClientW   int
	ClientH   int
}

// Header returns the column names matching Values.
func Header() []string {
	return []string{"timestamp", "score", "duration_s", "sigma", "sigma_rel", "num_points", "client_w", "client_h"}
}

// Values returns the row in spreadsheet column order. A non-finite
// sigma_rel is written as an empty cell since JSON cannot carry it.
func (r Row) Values() []interface{} {
	var sigmaRel interface{} = r.SigmaRel
	if math.IsInf(r.SigmaRel, 0) || math.IsNaN(r.SigmaRel) {
		sigmaRel = ""
	}
	return []interface{}{
		r.Timestamp.Format(TimestampLayout),
		r.Score,
		r.DurationS,
		r.Sigma,
		sigmaRel,
		r.NumPoints,
		r.ClientW,
		r.ClientH,
	}
}

// Appender persists rows somewhere.
type Appender interface {
	Append(ctx context.Context, row Row) error
}

// AppenderFunc adapts a function to Appender.
type AppenderFunc func(ctx context.Context, row Row) error

// Append calls f.
func (f AppenderFunc) Append(ctx context.Context, row Row) error { return f(ctx, row) }

// Nop discards rows.
var Nop Appender = AppenderFunc(func(context.Context, Row) error { return nil })

// Multi appends to every appender in order and joins their errors.
// A failing appender does not stop the others.
type Multi []Appender

// Append implements Appender.
func (m Multi) Append(ctx context.Context, row Row) error {
	var errs []error
	for _, a := range m {
		if err := a.Append(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrClosed is reported by Notify after Close.
var ErrClosed = errors.New("sink: notifier closed")

// Stats counts notifier outcomes.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Failed  uint64 `json:"failed"`
	Dropped uint64 `json:"dropped"`
}

// Notifier delivers rows to an Appender from a background goroutine.
type Notifier struct {
	appender Appender
	timeout  time.Duration
	queue    chan Row

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	sent    atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// NewNotifier starts a notifier with a queue of queueSize rows. Each append
// runs under its own timeout derived from a background context.
func NewNotifier(a Appender, queueSize int, timeout time.Duration) *Notifier {
	if queueSize < 1 {
		queueSize = 1
	}
	n := &Notifier{
		appender: a,
		timeout:  timeout,
		queue:    make(chan Row, queueSize),
		done:     make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues row for delivery. It never blocks: a full queue drops the
// row and returns false.
func (n *Notifier) Notify(row Row) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.dropped.Add(1)
		return false
	}
	select {
	case n.queue <- row:
		return true
	default:
		n.dropped.Add(1)
		monitoring.Logf("sink: queue full, dropped attempt %s", row.ID)
		return false
	}
}

// Close stops accepting rows, waits for queued rows to be delivered or for
// ctx to expire, and returns ctx.Err() in the latter case.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the delivery counters.
func (n *Notifier) Stats() Stats {
	return Stats{
		Sent:    n.sent.Load(),
		Failed:  n.failed.Load(),
		Dropped: n.dropped.Load(),
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for row := range n.queue {
		n.deliver(row)
	}
}

func (n *Notifier) deliver(row Row) {
	ctx := context.Background()
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			n.failed.Add(1)
			monitoring.Logf("sink: append panicked for attempt %s: %v", row.ID, r)
		}
	}()
	if err := n.appender.Append(ctx, row); err != nil {
		n.failed.Add(1)
		monitoring.Logf("sink: failed to record attempt %s: %v", row.ID, err)
		return
	}
	n.sent.Add(1)
}
