package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Notice é a dica de refresh enviada às UIs de console abertas. Quem recebe
// re-busca da autoridade; o payload não carrega estado.
type Notice struct {
	Kind     string `json:"kind"` // "matches_refreshed" | "result_published" | "ledger_adjusted"
	EntityID string `json:"entityId,omitempty"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

// Hub gerencia as conexões das UIs de operador. Diferente de um feed por
// evento, toda UI conectada recebe todas as dicas: o console inteiro é a
// assinatura. Broadcast é chamado de handlers concorrentes, e o gorilla só
// admite um escritor por conexão, então cada conexão carrega seu próprio
// mutex de escrita.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[*websocket.Conn]*sync.Mutex
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		conns:    make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ClientCount devolve quantas UIs estão conectadas agora.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// HandleWS mantém a conexão viva respondendo pings até o cliente desconectar.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wmu := &sync.Mutex{}
	h.mu.Lock()
	h.conns[conn] = wmu
	h.mu.Unlock()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			wmu.Lock()
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
			wmu.Unlock()
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast envia a dica pra todas as UIs conectadas. A escrita em cada
// conexão acontece sob o mutex dela, então broadcasts concorrentes (ou um
// broadcast cruzando com o pong do read loop) nunca entrelaçam frames.
func (h *Hub) Broadcast(kind, entityID string) {
	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, wmu := range h.conns {
		targets[c] = wmu
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(Notice{Kind: kind, EntityID: entityID, TsUnixMs: time.Now().UnixMilli()})
	for c, wmu := range targets {
		wmu.Lock()
		_ = c.WriteMessage(websocket.TextMessage, b)
		wmu.Unlock()
	}
}
