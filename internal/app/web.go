package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/odom_plotter/internal/metrics"
	"github.com/relabs-tech/odom_plotter/internal/trajectory"
)

const (
	liveSendBuffer = 64
	liveWriteWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// liveView mirrors accepted samples for HTTP and websocket clients.
// It keeps its own copy so the sampler's trajectory stays single-owner.
type liveView struct {
	mu      sync.Mutex
	samples []trajectory.Sample
	clients map[chan trajectory.Sample]struct{}
	metrics *metrics.Sampler
}

func newLiveView(m *metrics.Sampler) *liveView {
	return &liveView{
		clients: make(map[chan trajectory.Sample]struct{}),
		metrics: m,
	}
}

// publish records s and pushes it to every connected client.
// Clients that cannot keep up are disconnected.
func (v *liveView) publish(s trajectory.Sample) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.samples = append(v.samples, s)
	for ch := range v.clients {
		select {
		case ch <- s:
		default:
			delete(v.clients, ch)
			close(ch)
		}
	}
}

// subscribe returns the backlog and a channel for later samples.
func (v *liveView) subscribe() ([]trajectory.Sample, chan trajectory.Sample) {
	v.mu.Lock()
	defer v.mu.Unlock()

	backlog := append([]trajectory.Sample(nil), v.samples...)
	ch := make(chan trajectory.Sample, liveSendBuffer)
	v.clients[ch] = struct{}{}
	return backlog, ch
}

func (v *liveView) unsubscribe(ch chan trajectory.Sample) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.clients[ch]; ok {
		delete(v.clients, ch)
		close(ch)
	}
}

func (v *liveView) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trajectory", v.handleTrajectory)
	mux.HandleFunc("/ws/trajectory", v.handleTrajectoryWS)
	if v.metrics != nil {
		mux.Handle("/metrics", v.metrics.Handler())
	}
	return mux
}

func (v *liveView) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	v.mu.Lock()
	samples := append([]trajectory.Sample{}, v.samples...)
	v.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(samples); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (v *liveView) handleTrajectoryWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	backlog, ch := v.subscribe()
	defer v.unsubscribe(ch)

	// Reader goroutine only notices the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket read error: %v", err)
				}
				return
			}
		}
	}()

	send := func(s trajectory.Sample) error {
		conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		return conn.WriteJSON(s)
	}

	for _, s := range backlog {
		if err := send(s); err != nil {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case s, ok := <-ch:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"))
				return
			}
			if err := send(s); err != nil {
				return
			}
		}
	}
}

// serve runs the live view on port until ctx is done.
func (v *liveView) serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           v.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown error: %v", err)
		}
	}()

	log.Printf("web: live view listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
