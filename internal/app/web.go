package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/orientation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local network tool
	},
}

// streamMessage is what /ws/stream pushes for every update.
type streamMessage struct {
	Type string      `json:"type"` // "imu" or "pose"
	Data interface{} `json:"data"`
}

// liveState keeps the latest sample and pose and fans updates out to the
// stream clients.
type liveState struct {
	mu       sync.RWMutex
	lastIMU  imu.IMURaw
	haveIMU  bool
	lastPose orientation.Pose
	havePose bool

	clientsMu sync.Mutex
	clients   map[chan streamMessage]struct{}
}

func newLiveState() *liveState {
	return &liveState{clients: make(map[chan streamMessage]struct{})}
}

func (s *liveState) setIMU(r imu.IMURaw) {
	s.mu.Lock()
	s.lastIMU = r
	s.haveIMU = true
	s.mu.Unlock()
	s.broadcast(streamMessage{Type: "imu", Data: r})
}

func (s *liveState) setPose(p orientation.Pose) {
	s.mu.Lock()
	s.lastPose = p
	s.havePose = true
	s.mu.Unlock()
	s.broadcast(streamMessage{Type: "pose", Data: p})
}

// broadcast drops the message for clients that are not keeping up.
func (s *liveState) broadcast(m streamMessage) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- m:
		default:
		}
	}
}

func (s *liveState) subscribe() chan streamMessage {
	ch := make(chan streamMessage, 16)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()
	return ch
}

func (s *liveState) unsubscribe(ch chan streamMessage) {
	s.clientsMu.Lock()
	delete(s.clients, ch)
	s.clientsMu.Unlock()
}

func (s *liveState) handleIMU(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	v, ok := s.lastIMU, s.haveIMU
	s.mu.RUnlock()
	writeLatest(w, v, ok)
}

func (s *liveState) handleOrientation(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	v, ok := s.lastPose, s.havePose
	s.mu.RUnlock()
	writeLatest(w, v, ok)
}

func writeLatest(w http.ResponseWriter, v interface{}, ok bool) {
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// handleStream upgrades to a WebSocket and pushes every update until the
// client goes away.
func (s *liveState) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// Reader goroutine notices the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case m := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(m); err != nil {
				log.Printf("web: stream write error: %v", err)
				return
			}
		}
	}
}

func (s *liveState) routes(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/imu", s.handleIMU)
	mux.HandleFunc("/api/orientation", s.handleOrientation)
	mux.HandleFunc("/ws/stream", s.handleStream)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb serves the latest IMU data received over MQTT.
func RunWeb() error {
	cfg := config.Get()
	state := newLiveState()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicIMU, "web", state.setIMU); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicPose, "web", state.setPose); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, state.routes("web"))
}
