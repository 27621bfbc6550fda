package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Game event types pushed to the admin console and team consoles
const (
	MsgGameStarted     MessageType = "game_started"
	MsgCellSelected    MessageType = "cell_selected"
	MsgAnswerSubmitted MessageType = "answer_submitted"
	MsgAllAnswersIn    MessageType = "all_answers_in"
	MsgAIProcessing    MessageType = "ai_processing"
	MsgRoundResult     MessageType = "round_result"
	MsgBingoCompleted  MessageType = "bingo_completed"
	MsgRoundAdvanced   MessageType = "round_advanced"
	MsgGamePaused      MessageType = "game_paused"
	MsgGameResumed     MessageType = "game_resumed"
	MsgGameEnded       MessageType = "game_ended"
	MsgPlayerJoined    MessageType = "player_joined"
	MsgBoardReady      MessageType = "board_ready"
	MsgCardReplaced    MessageType = "card_replaced"
	MsgStateSync       MessageType = "state_sync"
	MsgError           MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for sessions
type Hub struct {
	// Session -> connections
	adminConns map[string]*Connection
	teamConns  map[string]map[string]*Connection // sessionID -> teamID -> conn

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	TeamID    string // Empty for admin connections
	IsAdmin   bool
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	ToAdmin   bool
	ToTeam    string // Empty means all teams, specific ID means one team
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		adminConns: make(map[string]*Connection),
		teamConns:  make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsAdmin {
				h.adminConns[conn.SessionID] = conn
				log.Printf("Admin connected to session %s", conn.SessionID)
			} else {
				if h.teamConns[conn.SessionID] == nil {
					h.teamConns[conn.SessionID] = make(map[string]*Connection)
				}
				h.teamConns[conn.SessionID][conn.TeamID] = conn
				log.Printf("Team %s connected to session %s", conn.TeamID, conn.SessionID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsAdmin {
				if existing, ok := h.adminConns[conn.SessionID]; ok && existing == conn {
					delete(h.adminConns, conn.SessionID)
					close(conn.Send)
					log.Printf("Admin disconnected from session %s", conn.SessionID)
				}
			} else {
				if teams, ok := h.teamConns[conn.SessionID]; ok {
					if existing, ok := teams[conn.TeamID]; ok && existing == conn {
						delete(teams, conn.TeamID)
						close(conn.Send)
						log.Printf("Team %s disconnected from session %s", conn.TeamID, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToAdmin {
				if conn, ok := h.adminConns[msg.SessionID]; ok {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else if msg.ToTeam != "" {
				// Send to specific team
				if teams, ok := h.teamConns[msg.SessionID]; ok {
					if conn, ok := teams[msg.ToTeam]; ok {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			} else {
				// Broadcast to all teams
				if teams, ok := h.teamConns[msg.SessionID]; ok {
					for _, conn := range teams {
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToAdmin sends a message to the session admin (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmin(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		ToAdmin:   true,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToTeam sends a message to a specific team (implements service.Broadcaster)
func (h *Hub) BroadcastToTeam(sessionID, teamID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		ToTeam:    teamID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToAllTeams sends a message to all teams in a session (implements service.Broadcaster)
func (h *Hub) BroadcastToAllTeams(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		ToTeam:    "", // Empty means all
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSession drops every connection of a deleted session
// (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.adminConns[sessionID]; ok {
		delete(h.adminConns, sessionID)
		close(conn.Send)
	}
	if teams, ok := h.teamConns[sessionID]; ok {
		for teamID, conn := range teams {
			delete(teams, teamID)
			close(conn.Send)
		}
		delete(h.teamConns, sessionID)
	}
}
