package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietquant/vietval/internal/valuation"
	"github.com/vietquant/vietval/pkg/models"
	"github.com/vietquant/vietval/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// wsValuateRequest is the payload of a "valuate" client message.
type wsValuateRequest struct {
	Symbol       string               `json:"symbol"`
	Assumptions  *AssumptionOverrides `json:"assumptions,omitempty"`
	CurrentPrice float64              `json:"current_price,omitempty"`
}

// wsWeightsRequest is the payload of a "weights" client message.
type wsWeightsRequest struct {
	Weights map[string]WeightOverride `json:"weights"`
}

// handleWebSocket upgrades HTTP connections to WebSocket and manages
// bidirectional communication for interactive valuation sessions.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		hub:  s.wsHub,
		send: make(chan WSMessage, 256),
	}

	s.wsHub.Register(client)

	// Start reader and writer goroutines
	go wsWritePump(conn, client, s)
	go wsReadPump(conn, client, s)
}

// wsReadPump pumps messages from the WebSocket connection to the hub.
func wsReadPump(conn *websocket.Conn, client *WSClient, s *Server) {
	defer func() {
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Errorf("WebSocket read error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "valuate":
			s.wsValuate(client, msg.Data)
		case "weights":
			s.wsReweight(client, msg.Data)
		case "subscribe":
			// Acknowledge subscription
			client.trySend(WSMessage{
				Type: "subscribed",
				Data: msg.Data,
			})
		case "ping":
			client.trySend(WSMessage{Type: "pong"})
		}
	}
}

// wsValuate runs a full valuation for the client and caches the
// calculator output so later weight changes skip the model runs.
func (s *Server) wsValuate(client *WSClient, data interface{}) {
	var req wsValuateRequest
	if !decodeWSData(data, &req) || req.Symbol == "" {
		client.trySend(WSMessage{Type: "error", Data: "valuate requires a symbol"})
		return
	}

	symbol := utils.NormalizeSymbol(req.Symbol)
	if !utils.IsValidSymbol(symbol) {
		client.trySend(WSMessage{Type: "error", Data: "invalid symbol: " + symbol})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f, err := s.provider.GetFundamentals(ctx, symbol)
	if err != nil {
		client.trySend(WSMessage{Type: "error", Data: err.Error()})
		return
	}

	a := s.assumptions(req.Assumptions)
	results := s.engine.RunModels(f, a)

	price := f.CurrentPrice
	if req.CurrentPrice > 0 {
		price = req.CurrentPrice
	}
	weights := models.DefaultWeightSet(f.IsBank && s.engine.Graham.ExcludeBanks)

	vr := valuation.Aggregate(results, weights, price)
	vr.Symbol = symbol

	client.mu.Lock()
	client.symbol = symbol
	client.results = results
	client.currentPrice = price
	client.mu.Unlock()

	client.trySend(WSMessage{Type: "valuation", Data: vr})
}

// wsReweight re-aggregates the client's cached calculator output under
// new weights. No model is re-run.
func (s *Server) wsReweight(client *WSClient, data interface{}) {
	var req wsWeightsRequest
	if !decodeWSData(data, &req) {
		client.trySend(WSMessage{Type: "error", Data: "invalid weights payload"})
		return
	}

	weights, err := parseWeights(req.Weights)
	if err != nil {
		client.trySend(WSMessage{Type: "error", Data: err.Error()})
		return
	}

	client.mu.Lock()
	symbol, results, price := client.symbol, client.results, client.currentPrice
	client.mu.Unlock()

	if results == nil {
		client.trySend(WSMessage{Type: "error", Data: "no valuation to reweight; send a valuate message first"})
		return
	}
	if weights == nil {
		client.trySend(WSMessage{Type: "error", Data: "weights payload is empty"})
		return
	}

	vr := valuation.Aggregate(results, weights, price)
	vr.Symbol = symbol

	client.trySend(WSMessage{Type: "valuation", Data: vr})
}

// decodeWSData round-trips a decoded JSON value into a typed payload.
func decodeWSData(data interface{}, out interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// wsWritePump pumps messages from the hub to the WebSocket connection.
func wsWritePump(conn *websocket.Conn, client *WSClient, s *Server) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.log.Errorf("WebSocket marshal error: %v", err)
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Flush queued messages
			n := len(client.send)
			for i := 0; i < n; i++ {
				nextMsg := <-client.send
				nextData, err := json.Marshal(nextMsg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, nextData); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
