// Package transport implements a reconnecting, line-oriented TCP client to
// the robot (real firmware or the simulator standing in for it). Its
// read/write-pump split and errgroup-joined shutdown are adapted from the
// teacher's fastview/client.go websocket client, generalized from JSON-over-
// websocket frames to newline-terminated ASCII lines over a raw net.Conn.
package transport

import (
	"bufio"
	"context"
	"net"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	dialTimeout      = 2 * time.Second
	writeDeadline    = time.Second
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 5 * time.Second
	inboxBufferSize  = 64
	outboxBufferSize = 64
)

// State is the socket's current connection state, published to any reader
// of StateChanges so an observer (e.g. the controller's health check) can
// react without polling.
type State int

const (
	Disconnected State = iota
	Connected
	Closed
)

// Socket is a reconnecting line-oriented TCP client. One goroutine owns the
// dial/reconnect loop; each live connection spawns a read pump and a write
// pump joined by an errgroup, exactly as the teacher's client.Sync joins its
// ping/read/publish goroutines.
type Socket struct {
	addr string

	lines  chan string
	outbox chan string
	states chan State

	closed chan struct{}
	done   chan struct{}
}

// Dial starts the reconnect loop against addr in the background and returns
// immediately; the caller observes connection state via StateChanges and
// receives decoded lines via Lines.
func Dial(addr string) *Socket {
	s := &Socket{
		addr:   addr,
		lines:  make(chan string, inboxBufferSize),
		outbox: make(chan string, outboxBufferSize),
		states: make(chan State, 1),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Lines returns the channel of lines received from the peer, in arrival
// order.
func (s *Socket) Lines() <-chan string { return s.lines }

// StateChanges returns the channel of connection-state transitions.
func (s *Socket) StateChanges() <-chan State { return s.states }

// Send enqueues a line for transmission. It never blocks indefinitely: if
// the outbox is full the line is dropped and an IOError is returned, which
// the caller may log and ignore (a dropped command is retried on the next
// controller tick, per spec §7's "never fatal" error design).
func (s *Socket) Send(line string) error {
	select {
	case <-s.closed:
		return newIOError("send", net.ErrClosed)
	case s.outbox <- line:
		return nil
	default:
		return newIOError("send", errOutboxFull)
	}
}

// Close stops the reconnect loop and releases any live connection. It
// blocks until the background goroutine has exited.
func (s *Socket) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	<-s.done
}

func (s *Socket) run() {
	defer close(s.done)
	backoff := initialBackoff

	for {
		select {
		case <-s.closed:
			s.publishState(Closed)
			return
		default:
		}

		conn, err := net.DialTimeout("tcp", s.addr, dialTimeout)
		if err != nil {
			s.publishState(Disconnected)
			if !s.sleep(backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = initialBackoff
		s.publishState(Connected)
		s.runSession(conn)
		s.publishState(Disconnected)
	}
}

func (s *Socket) sleep(d time.Duration) (ok bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.closed:
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (s *Socket) publishState(st State) {
	select {
	case s.states <- st:
	default:
		// A slow state observer sees only the latest transition; matches
		// the teacher's "idempotent update, intervening ones discarded" rule.
		select {
		case <-s.states:
		default:
		}
		s.states <- st
	}
}

// runSession owns one live connection: a read pump and a write pump, joined
// by an errgroup so either side's failure tears down both, mirroring
// client.Sync's group.Go/group.Wait shutdown join.
func (s *Socket) runSession(conn net.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer conn.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.readPump(groupCtx, conn)
	})
	group.Go(func() error {
		return s.writePump(groupCtx, conn)
	})
	group.Go(func() error {
		<-s.closed
		cancel()
		return nil
	})

	_ = group.Wait()
}

func (s *Socket) readPump(ctx context.Context, conn net.Conn) error {
	scanner := bufio.NewScanner(conn)
	linesOut := make(chan string)

	go func() {
		defer close(linesOut)
		for scanner.Scan() {
			select {
			case linesOut <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	merged := channerics.Merge(ctx.Done(), linesOut)
	for line := range merged {
		select {
		case s.lines <- line:
		case <-ctx.Done():
			return nil
		default:
			// Drop under backpressure rather than block the read pump.
		}
	}

	if err := scanner.Err(); err != nil {
		return newIOError("read", err)
	}
	return nil
}

func (s *Socket) writePump(ctx context.Context, conn net.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-s.outbox:
			if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return newIOError("write", err)
			}
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return newIOError("write", err)
			}
		}
	}
}
