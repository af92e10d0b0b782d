// Package relay is the shared intermediary that multiplexes chat clients and
// agents over one endpoint. Clients connect on /input, agents register on
// /agent; inputs are routed by address and agent events are fanned back to
// every connected client, which filter by correlation id.
package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"agent_chat/internal/model"
	"agent_chat/internal/service/redis"
	"agent_chat/internal/utils/log"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type (
	RelayServer struct {
		listenAddr   string
		redisService *redis.RedisService

		mu      sync.Mutex
		agents  map[string]*websocket.Conn // agent address -> conn
		clients map[*websocket.Conn]string // client conn -> last addressed agent
	}
)

func NewRelayServer(listenAddr string, redisSvc *redis.RedisService) *RelayServer {
	return &RelayServer{
		listenAddr:   listenAddr,
		redisService: redisSvc,
		agents:       make(map[string]*websocket.Conn),
		clients:      make(map[*websocket.Conn]string),
	}
}

func (s *RelayServer) Run() error {
	r := mux.NewRouter()

	r.HandleFunc("/input", s.HandleClientWS()).Methods(http.MethodGet)
	r.HandleFunc("/agent", s.HandleAgentWS()).Methods(http.MethodGet)
	return http.ListenAndServe(s.listenAddr, r)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *RelayServer) HandleAgentWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		if address == "" {
			http.Error(w, "address cannot be empty", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if _, ok := s.agents[address]; ok {
			s.mu.Unlock()
			http.Error(w, "duplicated agent address", http.StatusBadRequest)
			return
		}
		s.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		s.agents[address] = conn
		s.mu.Unlock()

		go s.processAgentMessages(address, conn)
		if err := s.ForwardQueuedInputs(address); err != nil {
			log.Error("forward queued inputs failed", zap.Error(err))
		}
	}
}

func (s *RelayServer) HandleClientWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		s.clients[conn] = ""
		s.mu.Unlock()

		go s.processClientMessages(conn)
	}
}

// processAgentMessages fans every agent event out to all connected clients.
// Correlation filtering happens client-side.
func (s *RelayServer) processAgentMessages(address string, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("agent web socket closed", zap.String("address", address), zap.Error(err))
			s.mu.Lock()
			delete(s.agents, address)
			s.mu.Unlock()
			conn.Close()
			break
		}

		s.mu.Lock()
		targets := make([]*websocket.Conn, 0, len(s.clients))
		for c := range s.clients {
			targets = append(targets, c)
		}
		s.mu.Unlock()

		for _, c := range targets {
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("write to client failed", zap.Error(err))
			}
		}
	}
}

func (s *RelayServer) processClientMessages(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("client web socket closed", zap.Error(err))
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
			break
		}

		var msg model.InputMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Error("unmarshal client message failed", zap.Error(err))
			continue
		}

		// Interactive responses carry no address; route to the agent this
		// client last talked to.
		to := msg.To
		s.mu.Lock()
		if to == "" {
			to = s.clients[conn]
		} else {
			s.clients[conn] = to
		}
		agentConn := s.agents[to]
		s.mu.Unlock()

		if to == "" {
			log.Debug("dropping unroutable client message", zap.String("type", msg.Type))
			continue
		}

		if agentConn != nil {
			if err := agentConn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("forward to agent failed", zap.Error(err))
			}
			continue
		}

		// Agent offline: only inputs are worth queueing.
		if msg.Type == model.TypeInput {
			if err := s.QueueInput(context.TODO(), to, data); err != nil {
				log.Error("queue input failed", zap.Error(err))
			}
		}
	}
}

// ForwardQueuedInputs drains inputs addressed to an agent that was offline
// when they were sent.
func (s *RelayServer) ForwardQueuedInputs(address string) error {
	inputs, err := s.DrainQueuedInputs(context.TODO(), address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.agents[address]
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	for _, data := range inputs {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error("forward queued input failed", zap.Error(err))
		}
	}
	return nil
}
