// Package dispatcher serves the one-command-per-connection text protocol.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/machine"
	"github.com/kasuboski/umaru/pkg/manager"
	"github.com/kasuboski/umaru/pkg/metrics"
	"github.com/kasuboski/umaru/pkg/watchlist"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/service.go github.com/kasuboski/umaru/pkg/dispatcher Service

const (
	DefaultBufferSize     = 2048
	DefaultReadTimeout    = 10 * time.Second
	DefaultMaxConnections = 16
	writeTimeout          = 10 * time.Second
)

// Service is the shared state a command can read or change
type Service interface {
	Status() manager.Status
	Watchlist(ctx context.Context) ([]watchlist.Entry, error)
	Login(ctx context.Context, id, secret string) error
	TriggerRefreshCycle(ctx context.Context) error
}

type connState string

const (
	stateAwaitCommand     connState = "AwaitCommand"
	stateRespondStatus    connState = "RespondStatus"
	stateRespondWatchlist connState = "RespondWatchlist"
	stateStoreCredentials connState = "StoreCredentials"
	stateTriggerRefresh   connState = "TriggerRefresh"
	stateClosed           connState = "Closed"
)

var commandStates = map[Command]connState{
	CommandStatus:    stateRespondStatus,
	CommandWatchlist: stateRespondWatchlist,
	CommandLogin:     stateStoreCredentials,
	CommandRefresh:   stateTriggerRefresh,
}

func newConnMachine() *machine.StateMachine[connState] {
	return machine.New(stateAwaitCommand,
		machine.From(stateAwaitCommand).To(stateRespondStatus, stateRespondWatchlist, stateStoreCredentials, stateTriggerRefresh, stateClosed),
		machine.From(stateRespondStatus).To(stateClosed),
		machine.From(stateRespondWatchlist).To(stateClosed),
		machine.From(stateStoreCredentials).To(stateClosed),
		machine.From(stateTriggerRefresh).To(stateClosed),
	)
}

type Dispatcher struct {
	service Service
	connLog *ConnLog
	metrics *metrics.Metrics

	bufferSize     int
	readTimeout    time.Duration
	maxConnections int
	source         *time.Location
	now            func() time.Time

	wg sync.WaitGroup
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

func WithBufferSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.bufferSize = n
		}
	}
}

func WithReadTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.readTimeout = timeout
		}
	}
}

func WithMaxConnections(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxConnections = n
		}
	}
}

// WithSourceLocation sets the zone the catalog source publishes its schedule in
func WithSourceLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.source = loc
		}
	}
}

func WithConnLog(l *ConnLog) Option {
	return func(d *Dispatcher) {
		d.connLog = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock overrides the time source used in status responses
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(service Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		service:        service,
		metrics:        metrics.New(),
		bufferSize:     DefaultBufferSize,
		readTimeout:    DefaultReadTimeout,
		maxConnections: DefaultMaxConnections,
		source:         time.UTC,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ListenAndServe listens on addr and serves until ctx is done
func (d *Dispatcher) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return d.Serve(ctx, ln)
}

// Serve accepts connections on ln and handles each on its own goroutine. When
// ctx is done the listener is closed, which unblocks Accept, and Serve waits
// for open connections before returning.
func (d *Dispatcher) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.FromCtx(ctx)
	log.Infow("accepting commands", "address", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	slots := make(chan struct{}, d.maxConnections)

	for {
		conn, err := ln.Accept()
		if err != nil {
			d.wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Debug("listener closed")
				return nil
			}
			return err
		}

		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			conn.Close()
			continue
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() { <-slots }()
			d.handle(ctx, conn)
		}()
	}
}

func (d *Dispatcher) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log := logger.FromCtx(ctx).With("conn_id", uuid.New().String(), "remote", remote)
	ctx = logger.WithCtx(ctx, log)

	d.metrics.Connections.Inc()
	defer d.metrics.Connections.Dec()

	log.Info("client connected")
	if err := d.connLog.Record(remote, d.now()); err != nil {
		log.Warnw("failed to record connection", "error", err)
	}

	state := newConnMachine()

	req, err := d.read(conn)
	if err != nil {
		log.Debugw("closing connection", "error", err)
		d.metrics.Commands.WithLabelValues("unknown").Inc()
		d.close(ctx, state)
		return
	}

	if err := state.Transition(commandStates[req.Command]); err != nil {
		log.Errorw("unexpected connection state", "error", err)
		return
	}
	d.metrics.Commands.WithLabelValues(string(req.Command)).Inc()
	log.Debugw("handling command", "command", string(req.Command))

	response := d.respond(ctx, req)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write([]byte(response)); err != nil {
		log.Warnw("failed to write response", "error", err)
	}

	d.close(ctx, state)
}

// read performs a single bounded read under the read deadline
func (d *Dispatcher) read(conn net.Conn) (Request, error) {
	if err := conn.SetReadDeadline(time.Now().Add(d.readTimeout)); err != nil {
		return Request{}, err
	}

	buf := make([]byte, d.bufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = ErrMalformedCommand
		}
		return Request{}, err
	}

	return Parse(string(buf[:n]))
}

func (d *Dispatcher) respond(ctx context.Context, req Request) string {
	log := logger.FromCtx(ctx)

	switch req.Command {
	case CommandStatus:
		return FormatStatus(d.service.Status(), d.now(), d.source)

	case CommandWatchlist:
		entries, err := d.service.Watchlist(ctx)
		if err != nil {
			return fmt.Sprintf("Failed to read watchlist: %v\n", err)
		}
		out, err := FormatWatchlist(entries)
		if err != nil {
			log.Errorw("failed to encode watchlist", "error", err)
			return fmt.Sprintf("Failed to read watchlist: %v\n", err)
		}
		return out

	case CommandLogin:
		if err := d.service.Login(ctx, req.User, req.Secret); err != nil {
			return fmt.Sprintf("Failed to store login: %v\n", err)
		}
		return formatLogin(req.User)

	case CommandRefresh:
		return formatRefresh(d.service.TriggerRefreshCycle(ctx))
	}

	return ""
}

func (d *Dispatcher) close(ctx context.Context, state *machine.StateMachine[connState]) {
	if err := state.Transition(stateClosed); err != nil {
		logger.FromCtx(ctx).Errorw("unexpected connection state", "error", err)
	}
}
