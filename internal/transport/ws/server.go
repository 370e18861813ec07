package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tilephase/internal/phase"
	"tilephase/internal/protocol"
	"tilephase/internal/session"
)

// Server exposes the debug/visualization surface and the phase control over
// a websocket. Inspectors query families, neighbor reports and pair scores;
// any client may set the phase, and applied sweeps are broadcast to all.
type Server struct {
	sess *session.Session
	log  *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]chan []byte
}

func NewServer(sess *session.Session, logger *log.Logger) *Server {
	return &Server{
		sess: sess,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[string]chan []byte{},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		defer s.drop(sessionID)

		done := make(chan struct{})
		defer close(done)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.dispatch(out, msg)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID := uuid.NewString()
	out := make(chan []byte, 16)

	welcome := s.sess.Welcome(sessionID)
	b, err := json.Marshal(welcome)
	if err != nil {
		return "", nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return "", nil
	}

	s.mu.Lock()
	s.clients[sessionID] = out
	s.mu.Unlock()
	return sessionID, out
}

func (s *Server) dispatch(out chan []byte, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(out, protocol.ErrProtoBadRequest, "bad json")
		return
	}

	switch base.Type {
	case protocol.TypeSetPhase:
		var req protocol.SetPhaseMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(out, protocol.ErrBadRequest, "bad SET_PHASE")
			return
		}
		writes := s.sess.SetPhase(req.Phase)
		s.log.Printf("phase %d applied: %d writes", s.sess.Phase(), writes)
		s.broadcast(protocol.PhaseMsg{
			Type:            protocol.TypePhase,
			ProtocolVersion: protocol.Version,
			Phase:           s.sess.Phase(),
			Writes:          writes,
		})

	case protocol.TypeZonePhase:
		var req protocol.ZonePhaseMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(out, protocol.ErrBadRequest, "bad ZONE_PHASE")
			return
		}
		writes := s.sess.ZonePhase(phase.Rect{
			MinX: req.MinX, MinY: req.MinY, MaxX: req.MaxX, MaxY: req.MaxY,
		}, req.Phase)
		s.send(out, protocol.PhaseMsg{
			Type:            protocol.TypePhase,
			ProtocolVersion: protocol.Version,
			Phase:           req.Phase,
			Writes:          writes,
			Zoned:           true,
		})

	case protocol.TypeFamilies:
		b, err := s.sess.FamiliesPayload()
		if err != nil {
			s.sendError(out, protocol.ErrNoLibrary, err.Error())
			return
		}
		s.sendRaw(out, b)

	case protocol.TypeScores:
		b, err := s.sess.ScoresPayload()
		if err != nil {
			s.sendError(out, protocol.ErrNoLibrary, err.Error())
			return
		}
		s.sendRaw(out, b)

	case protocol.TypeNeighbors:
		var req protocol.NeighborsMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(out, protocol.ErrBadRequest, "bad NEIGHBORS")
			return
		}
		resp, err := s.sess.Neighbors(req.Tile)
		if err != nil {
			s.sendError(out, protocol.ErrTileNotFound, err.Error())
			return
		}
		s.send(out, resp)

	default:
		s.sendError(out, protocol.ErrProtoBadRequest, "unknown type "+base.Type)
	}
}

func (s *Server) send(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.sendRaw(out, b)
}

func (s *Server) sendRaw(out chan []byte, b []byte) {
	select {
	case out <- b:
	default:
		// Slow consumer: drop rather than stall the reader loop.
	}
}

func (s *Server) sendError(out chan []byte, code, message string) {
	s.send(out, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func (s *Server) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.clients {
		select {
		case out <- b:
		default:
		}
	}
}

func (s *Server) drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, sessionID)
}
