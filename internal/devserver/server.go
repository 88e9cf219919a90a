// Package devserver is a small in-memory lobby server. It speaks the same
// REST and websocket protocol as the production service and backs the
// end-to-end tests and "lobby devserver".
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-client/internal/engine"
	"github.com/DoyleJ11/lobby-client/internal/httpapi"
	"github.com/DoyleJ11/lobby-client/internal/types"
)

const (
	DefaultReadTimeout = 30 * time.Second
	writeTimeout       = 3 * time.Second
	outboxSize         = 16
)

type Server struct {
	// ReadTimeout closes a socket that has been silent this long. Clients
	// ping every 15s.
	ReadTimeout time.Duration
	// OriginPatterns is passed to websocket.Accept. Empty skips the origin
	// check, which is what a dev server wants.
	OriginPatterns []string

	log    *zap.Logger
	mu     sync.Mutex
	rooms  map[string]*Room
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Server{
		ReadTimeout: DefaultReadTimeout,
		log:         log,
		rooms:       make(map[string]*Room),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Close shuts every room down, which closes all sockets.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-game", s.createGame)
		r.Post("/join-game", s.joinGame)
	})
	r.Get("/ws/{clientID}", s.serveWS)
	r.Get("/healthz", Healthz)
	return r
}

// Room returns the room for code, or nil.
func (s *Server) Room(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[strings.ToUpper(code)]
}

// GenerateCode returns a random 4 character room code.
func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, httpapi.RoomCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func (s *Server) openRoom(gameType string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		if s.rooms[code] != nil {
			s.log.Debug("collision on code, regenerating", zap.String("room_code", code))
			continue
		}
		rm := newRoom(s.ctx, code, gameType, s.log)
		s.rooms[code] = rm
		return rm, nil
	}
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req httpapi.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := httpapi.ValidateGameType(req.GameType); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name, err := httpapi.ValidateName(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rm, err := s.openRoom(req.GameType)
	if err != nil {
		http.Error(w, "failed to generate code", http.StatusInternalServerError)
		return
	}
	clientID := uuid.NewString()
	rm.Register(clientID, name, true)
	s.log.Info("room created",
		zap.String("room_code", rm.code),
		zap.String("game_type", req.GameType),
		zap.String("client_id", clientID))

	writeJSON(w, http.StatusCreated, httpapi.CreateResponse{GameCode: rm.code, UUID: clientID})
}

func (s *Server) joinGame(w http.ResponseWriter, r *http.Request) {
	var req httpapi.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	name, err := httpapi.ValidateName(req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rm := s.Room(req.GameCode)
	if rm == nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if limit := engine.MaxPlayers(rm.gameType); limit > 0 && len(rm.View().Players) >= limit {
		http.Error(w, "game is full", http.StatusConflict)
		return
	}

	clientID := uuid.NewString()
	rm.Register(clientID, name, false)
	s.log.Info("player joined", zap.String("room_code", rm.code), zap.String("client_id", clientID))

	writeJSON(w, http.StatusOK, httpapi.JoinResponse{UUID: clientID})
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	code := r.URL.Query().Get("game_code")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.OriginPatterns,
		InsecureSkipVerify: len(s.OriginPatterns) == 0,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	log := s.log.With(zap.String("client_id", clientID), zap.String("room_code", code))

	rm := s.Room(code)
	if rm == nil {
		conn.Close(websocket.StatusPolicyViolation, "unknown room")
		return
	}
	out := make(chan []byte, outboxSize)
	if err := rm.Attach(clientID, out); err != nil {
		conn.Close(websocket.StatusPolicyViolation, "unknown client")
		return
	}
	defer rm.Detach(clientID, out)

	// Writer goroutine. A closed outbox means the room dropped us.
	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for data := range out {
			ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
		conn.Close(websocket.StatusGoingAway, "dropped")
	}()

	// Reader loop
	for {
		ctx, cancel := context.WithTimeout(r.Context(), s.ReadTimeout)
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil || cm.Type == "" {
			conn.Close(websocket.StatusUnsupportedData, "bad json")
			return
		}
		rm.Deliver(clientID, cm)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
