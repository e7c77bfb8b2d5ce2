package kpi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	wsWriteWait     = 1 * time.Second
	wsPingPeriod    = 200 * time.Millisecond
	wsPongWait      = wsPingPeriod * 4
	wsPublishPeriod = 50 * time.Millisecond
)

var upgrader = websocket.Upgrader{}

// WSSink streams KPI records to one connected external viewer over a
// websocket, following the teacher's fastview client idiom: a dedicated
// ping/pong liveness goroutine and a publish goroutine joined by an
// errgroup, both reading/writing through a single serialized websocket.
// It is a raw data feed, not a GUI, per SPEC_FULL §6.
type WSSink struct {
	updates chan Record
	filter  func(label string) bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Upgrade upgrades an HTTP request to a websocket and returns a WSSink that
// streams records matching labelSelector to that one client until it
// disconnects or ctx is cancelled. Not every record is sent: at most one
// is published per wsPublishPeriod (records arriving sooner are
// discarded), and when the 256-record buffer is full Write drops the
// oldest queued record.
func Upgrade(ctx context.Context, w http.ResponseWriter, r *http.Request, labelSelector string) (*WSSink, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, fmt.Errorf("kpi: ws sink: %w", err)
	}

	sinkCtx, cancel := context.WithCancel(ctx)
	sink := &WSSink{
		updates: make(chan Record, 256),
		filter:  LabelFilter(labelSelector),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go sink.run(sinkCtx, ws)
	return sink, nil
}

func (s *WSSink) Write(r Record) error {
	if !s.filter(r.Label) {
		return nil
	}
	select {
	case s.updates <- r:
		return nil
	default:
		// Drop-oldest under backpressure: this is a viewer feed, not the
		// training loop itself, per SPEC_FULL §9.
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- r:
		default:
		}
		return nil
	}
}

func (s *WSSink) Close() error {
	s.cancel()
	<-s.done
	return nil
}

var errPongDeadlineExceeded = errors.New("kpi: ws sink pong deadline exceeded")

func (s *WSSink) run(ctx context.Context, ws *websocket.Conn) {
	defer close(s.done)
	defer ws.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.pingPong(groupCtx, ws) })
	group.Go(func() error { return s.publish(groupCtx, ws) })
	_ = group.Wait()
}

func (s *WSSink) pingPong(ctx context.Context, ws *websocket.Conn) error {
	pong := make(chan struct{}, 1)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), wsPingPeriod)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > wsPongWait {
				return errPongDeadlineExceeded
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return fmt.Errorf("kpi: ws ping: %w", err)
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (s *WSSink) publish(ctx context.Context, ws *websocket.Conn) error {
	lastSent := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-s.updates:
			if !ok {
				return nil
			}
			if time.Since(lastSent) < wsPublishPeriod {
				continue
			}
			lastSent = time.Now()
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return fmt.Errorf("kpi: ws write deadline: %w", err)
			}
			if err := ws.WriteJSON(r); err != nil {
				return fmt.Errorf("kpi: ws write: %w", err)
			}
		}
	}
}
