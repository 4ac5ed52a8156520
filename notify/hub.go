package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/types"
)

// Frame is the wire envelope pushed to websocket clients. The selector hints
// come from configuration and are applied by the page, the daemon does not
// interpret them.
type Frame struct {
	Type         string               `json:"type"`
	Message      string               `json:"message,omitempty"`
	Severity     types.Severity       `json:"severity,omitempty"`
	Account      types.Account        `json:"account,omitempty"`
	Label        string               `json:"label,omitempty"`
	Connected    bool                 `json:"connected,omitempty"`
	Reason       string               `json:"reason,omitempty"`
	Install      *types.InstallPrompt `json:"install,omitempty"`
	ButtonText   string               `json:"buttonTextSelector,omitempty"`
	ButtonWrap   string               `json:"buttonWrapperSelector,omitempty"`
	ButtonTarget string               `json:"connectButtonSelector,omitempty"`
}

const (
	frameNotification = "notification"
	frameButton       = "button"
	frameInstall      = "install"
	frameReload       = "reload"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var _ Sink = (*Hub)(nil)

// Hub broadcasts sink output to connected websocket clients. A client whose
// send queue is full is dropped rather than blocking the caller.
type Hub struct {
	ui *config.UIConfig

	lk      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(ui *config.UIConfig) *Hub {
	return &Hub{
		ui:      ui,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the connection until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.lk.Lock()
	h.clients[c] = struct{}{}
	h.lk.Unlock()
	log.Debugf("ui client connected from %s", conn.RemoteAddr())

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	_ = c.conn.Close()
}

// readLoop discards inbound frames and detects peer close.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.lk.Lock()
	defer h.lk.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Errorf("marshal %s frame: %v", frame.Type, err)
		return
	}

	h.lk.Lock()
	defer h.lk.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow client, disconnect it
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount reports the number of attached ui clients.
func (h *Hub) ClientCount() int {
	h.lk.Lock()
	defer h.lk.Unlock()
	return len(h.clients)
}

// Close drops every client.
func (h *Hub) Close() {
	h.lk.Lock()
	defer h.lk.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) UpdateWalletButton(account types.Account) {
	frame := Frame{
		Type:         frameButton,
		Account:      account,
		Connected:    !account.IsZero(),
		Label:        h.ui.ConnectLabel,
		ButtonText:   h.ui.ButtonTextSelector,
		ButtonWrap:   h.ui.ButtonWrapperSelector,
		ButtonTarget: h.ui.ConnectButtonSelector,
	}
	if !account.IsZero() {
		frame.Label = account.Truncate()
	}
	h.broadcast(frame)
}

func (h *Hub) ShowNotification(message string, severity types.Severity) {
	h.broadcast(Frame{Type: frameNotification, Message: message, Severity: severity})
}

func (h *Hub) PromptInstall(prompt types.InstallPrompt) {
	p := prompt
	h.broadcast(Frame{Type: frameInstall, Install: &p})
}

func (h *Hub) RequestReload(reason string) {
	h.broadcast(Frame{Type: frameReload, Reason: reason})
}
