package statusservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/airenas/dubly/internal/pkg/notify"
	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/go-app/pkg/goapp"
)

// WsConn is interface for websocket handling in status service
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	WriteJSON(v interface{}) error
}

// Subscriber registers for project snapshots
type Subscriber interface {
	Subscribe(id string) *notify.Subscription
}

// WSConnKeeper serves subscriptions. A client sends a project ID and then receives
// the current snapshot and every following change. Sending another ID switches the project.
type WSConnKeeper struct {
	broker  Subscriber
	fetcher notify.Fetcher
	timeOut time.Duration

	lock   sync.Mutex
	active map[WsConn]string
}

type errorResult struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// NewWSConnKeeper creates manager
func NewWSConnKeeper(broker Subscriber, fetcher notify.Fetcher) (*WSConnKeeper, error) {
	if broker == nil {
		return nil, fmt.Errorf("no broker")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher")
	}
	res := &WSConnKeeper{broker: broker, fetcher: fetcher, active: map[WsConn]string{}}
	res.timeOut = time.Minute * 30 // max idle time without a client message
	return res, nil
}

// HandleConnection loops until connection is active, all writes happen in this routine
func (kp *WSConnKeeper) HandleConnection(conn WsConn) error {
	defer kp.deleteConnection(conn)
	defer conn.Close()
	readCh := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(readCh)
		defer goapp.Log.Debug().Msg("read routine ended")
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				goapp.Log.Info().Err(err).Msg("ws read")
				return
			}
			msg := strings.TrimSpace(string(message))
			goapp.Log.Debug().Str("msg", goapp.Sanitize(msg)).Msg("got msg")
			if msg == "" {
				continue
			}
			select {
			case readCh <- msg:
			case <-done:
				return
			}
		}
	}()

	var sub *notify.Subscription
	var subCh <-chan notify.Snapshot
	var last *notify.Snapshot
	defer func() {
		if sub != nil {
			sub.Close()
		}
	}()
	ta := time.After(kp.timeOut)
loop:
	for {
		select {
		case <-ta:
			goapp.Log.Debug().Msg("conn timeouted")
			break loop
		case msg, ok := <-readCh:
			if !ok {
				goapp.Log.Debug().Msg("conn read closed")
				break loop
			}
			if sub != nil {
				sub.Close()
			}
			kp.saveConnection(conn, msg)
			sub = kp.broker.Subscribe(msg)
			subCh = sub.C()
			last = nil
			st, err := kp.current(msg)
			if err != nil {
				if err := conn.WriteJSON(&errorResult{ID: msg, Error: err.Error()}); err != nil {
					goapp.Log.Error().Err(err).Send()
					break loop
				}
			} else if err := sendMsg(conn, st); err != nil {
				goapp.Log.Error().Err(err).Send()
				break loop
			} else {
				last = st
			}
			ta = time.After(kp.timeOut)
		case st, ok := <-subCh:
			if !ok {
				subCh = nil
				continue
			}
			if st.Same(last) || st.Older(last) {
				continue
			}
			if err := sendMsg(conn, &st); err != nil {
				goapp.Log.Error().Err(err).Send()
				break loop
			}
			last = &st
		}
	}
	goapp.Log.Info().Msg("handleConnection finish")
	return nil
}

func (kp *WSConnKeeper) current(id string) (*notify.Snapshot, error) {
	ctx, cf := context.WithTimeout(context.Background(), 10*time.Second)
	defer cf()
	res, err := kp.fetcher.Snapshot(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("unknown ID")
		}
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't fetch snapshot")
		return nil, fmt.Errorf("service error")
	}
	return res, nil
}

func sendMsg(c WsConn, st *notify.Snapshot) error {
	goapp.Log.Debug().Str("ID", st.ID).Str("status", st.Status.String()).Msg("sending to websocket")
	if err := c.WriteJSON(st); err != nil {
		return fmt.Errorf("cannot write to websocket: %w", err)
	}
	return nil
}

func (kp *WSConnKeeper) deleteConnection(conn WsConn) {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	delete(kp.active, conn)
	goapp.Log.Info().Int("active", len(kp.active)).Msg("deleteConnection finish")
}

func (kp *WSConnKeeper) saveConnection(conn WsConn, id string) {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	kp.active[conn] = id
	goapp.Log.Info().Str("ID", id).Int("active", len(kp.active)).Msg("saveConnection finish")
}

// Active returns count of connections subscribed to the project
func (kp *WSConnKeeper) Active(id string) int {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	res := 0
	for _, v := range kp.active {
		if v == id {
			res++
		}
	}
	return res
}
