// Package stream runs the event loop: connect to a destination backend,
// wait for its schema to be ready, then synthesize and fan out transactions
// until cancelled.
package stream

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/fanout"
	"payment-stream-lab/internal/observability"
	"payment-stream-lab/internal/storage"
	"payment-stream-lab/internal/synth"
)

// State is the driver's lifecycle phase.
type State int32

const (
	StateConnecting State = iota
	StateProvisioned
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateProvisioned:
		return "provisioned"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Connector opens the destination backend. The returned close function
// releases the connection and is called once when the driver stops.
type Connector interface {
	Connect(ctx context.Context) (*storage.Destinations, func(), error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context) (*storage.Destinations, func(), error)

func (f ConnectorFunc) Connect(ctx context.Context) (*storage.Destinations, func(), error) {
	return f(ctx)
}

// Provisioner signals when the destination schema exists. Schema creation
// itself belongs to an external collaborator; the driver only waits for it.
type Provisioner interface {
	Ready(ctx context.Context) error
}

// NopProvisioner reports ready immediately.
type NopProvisioner struct{}

func (NopProvisioner) Ready(ctx context.Context) error { return nil }

// Defaults for unset Options fields.
const (
	DefaultConnectDelay = 5 * time.Second
	DefaultEventDelay   = 500 * time.Millisecond
	DefaultReportEvery  = 50
)

// Options configures a Driver.
type Options struct {
	// Connector opens the backend. Required.
	Connector Connector
	// Provisioner gates the streaming phase. Defaults to NopProvisioner.
	Provisioner Provisioner
	// Synthesizer produces the events. Required.
	Synthesizer *synth.Synthesizer

	// ConnectAttempts bounds connection retries. Zero retries forever.
	ConnectAttempts uint
	// ConnectDelay is the fixed wait between connection attempts.
	ConnectDelay time.Duration
	// EventDelay is the pause between events. Zero keeps the default;
	// a negative value disables the pause.
	EventDelay time.Duration
	// MaxEvents stops the stream after that many events. Zero streams
	// until the context is cancelled.
	MaxEvents int64
	// ReportEvery emits a summary line every N events.
	ReportEvery int64
	// HourlyRetention is passed through to the fan-out writer.
	HourlyRetention time.Duration

	Metrics *observability.Metrics
	Logger  *log.Logger
}

// Driver owns one streaming session.
type Driver struct {
	opts  Options
	state atomic.Int32
}

// NewDriver validates options and creates a driver in the connecting state.
func NewDriver(opts Options) (*Driver, error) {
	if opts.Connector == nil {
		return nil, fmt.Errorf("stream: connector is required")
	}
	if opts.Synthesizer == nil {
		return nil, fmt.Errorf("stream: synthesizer is required")
	}
	if opts.Provisioner == nil {
		opts.Provisioner = NopProvisioner{}
	}
	if opts.ConnectDelay <= 0 {
		opts.ConnectDelay = DefaultConnectDelay
	}
	if opts.EventDelay == 0 {
		opts.EventDelay = DefaultEventDelay
	}
	if opts.ReportEvery <= 0 {
		opts.ReportEvery = DefaultReportEvery
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Driver{opts: opts}, nil
}

// State returns the current lifecycle phase.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	d.opts.Logger.Printf("state: %s", s)
}

// Run drives the session until the context is cancelled or MaxEvents is
// reached. Cancellation is a graceful stop and returns the final summary
// with a nil error; only a failed connect or provision returns an error.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	d.setState(StateConnecting)

	dest, closeFn, err := d.connect(ctx)
	if err != nil {
		d.setState(StateStopped)
		return Summary{}, fmt.Errorf("connect to destinations: %w", err)
	}
	defer closeFn()

	d.setState(StateProvisioned)
	if err := d.opts.Provisioner.Ready(ctx); err != nil {
		d.setState(StateStopped)
		return Summary{}, fmt.Errorf("wait for schema: %w", err)
	}

	writer := fanout.NewWriter(fanout.Options{
		Destinations:    dest,
		HourlyRetention: d.opts.HourlyRetention,
		Metrics:         d.opts.Metrics,
		Logger:          d.opts.Logger,
	})

	d.setState(StateStreaming)
	stats := NewStats(time.Now())
	d.stream(ctx, writer, stats)

	d.setState(StateStopped)
	final := stats.Snapshot(time.Now())
	d.opts.Logger.Printf("run complete: %d events, %d writes (%d failed), %.1f events/s",
		final.Events, final.Writes, final.WriteErrors, final.Rate())
	return final, nil
}

// connect retries the backend connection on a fixed delay. Attempts of zero
// retries until the context is cancelled.
func (d *Driver) connect(ctx context.Context) (dest *storage.Destinations, closeFn func(), err error) {
	err = retry.Do(
		func() error {
			d.opts.Metrics.ObserveConnectAttempt()
			dest, closeFn, err = d.opts.Connector.Connect(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(d.opts.ConnectAttempts),
		retry.Delay(d.opts.ConnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.opts.Logger.Printf("connect attempt %d failed: %v (retrying in %s)", n+1, err, d.opts.ConnectDelay)
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	return dest, closeFn, nil
}

// stream emits events until cancellation or the event cap. Write failures
// are logged by the fan-out writer and never stop the loop.
func (d *Driver) stream(ctx context.Context, writer *fanout.Writer, stats *Stats) {
	for seq := int64(1); ; seq++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e := d.opts.Synthesizer.Next()
		res := writer.Write(ctx, e)
		stats.RecordEvent(fanout.NumDestinations, len(res.Failed()))
		d.opts.Metrics.ObserveEventEmitted()
		d.logEvent(seq, e, res)

		if seq%d.opts.ReportEvery == 0 {
			s := stats.Snapshot(time.Now())
			d.opts.Logger.Printf("--- %d events emitted, %d/%d writes ok, %.1f events/s ---",
				s.Events, s.Writes-s.WriteErrors, s.Writes, s.Rate())
		}
		if d.opts.MaxEvents > 0 && seq >= d.opts.MaxEvents {
			return
		}

		if d.opts.EventDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.opts.EventDelay):
			}
		}
	}
}

func (d *Driver) logEvent(seq int64, e *domain.TransactionEvent, res *fanout.Result) {
	status := "ok"
	if failed := res.Failed(); len(failed) > 0 {
		status = fmt.Sprintf("%d/%d writes failed", len(failed), fanout.NumDestinations)
	}
	d.opts.Logger.Printf("[%s] #%d %s %s at %s (%s) [%s]",
		e.Time.Format("15:04:05"), seq, domain.FormatMinor(e.AmountMinor),
		domain.DisplayCategory(e.Category), e.Merchant, e.PaymentMethod, status)
}
