package roomtest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

// Server is an in-process room server speaking the same HTTP and websocket
// protocol as the real one.
type Server struct {
	*httptest.Server
	hub *hub
}

// NewServer starts a server that is shut down when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	h := newHub(context.Background())
	srv := httptest.NewServer(routes(h))
	t.Cleanup(func() {
		h.shutdown()
		srv.Close()
	})
	return &Server{Server: srv, hub: h}
}

// WSURL is the websocket endpoint base, e.g. ws://127.0.0.1:4321.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

// AddRoom creates a room with default settings, or returns the existing one.
func (s *Server) AddRoom(code string) *Room {
	return s.hub.ensure(code, types.Settings{IsPublic: true}.WithDefaults())
}

// Room returns the room for code, or nil.
func (s *Server) Room(code string) *Room {
	return s.hub.get(code)
}

func routes(h *hub) http.Handler {
	r := chi.NewRouter()

	r.Get("/rooms", listRoomsHandler(h))
	r.Post("/rooms/create", createRoomHandler(h))
	r.Get("/rooms/join", joinRoomHandler(h))
	r.Get("/healthz", healthz)
	return r
}

func generateCode() (string, error) {
	const charset = "0123456789abcdef"

	code := make([]byte, 8)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, desc string) {
	writeJSON(w, status, types.ErrorResp{Status: status, ErrorDesc: desc})
}

func listRoomsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset := 0
		if s := r.URL.Query().Get("offset"); s != "" {
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Offset parameters must be a 32-bit integer")
				return
			}
			offset = int(n)
		}
		codes := h.list(offset)
		if codes == nil {
			codes = []string{}
		}
		writeJSON(w, http.StatusOK, codes)
	}
}

func createRoomHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings types.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		settings = settings.WithDefaults()
		if err := settings.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var code string
		for {
			c, err := generateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to generate a valid room code")
				return
			}
			if h.get(c) == nil {
				code = c
				break
			}
		}
		if h.ensure(code, settings) == nil {
			writeError(w, http.StatusInternalServerError, "failed to create room")
			return
		}
		writeJSON(w, http.StatusOK, types.CreateRoomResp{Code: code, Settings: settings})
	}
}

func joinRoomHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing code")
			return
		}
		rm := h.get(code)
		if rm == nil {
			writeError(w, http.StatusNotFound, "Cannot find room for provided code")
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		id := q.Get("token")
		if id == "" {
			id = uuid.NewString()
		}
		peer := newPeer(conn, types.Player{ID: id, Name: q.Get("name")})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go peer.writeLoop(ctx)

		rm.send(join{peer: peer})
		defer rm.send(leave{peer: peer})

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				peer.stop()
				return
			}
			env, err := types.DecodeEnvelope(data)
			if err != nil {
				continue
			}
			select {
			case peer.recv <- env:
			default:
			}
			rm.send(fromPeer{peer: peer, env: env})
		}
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
