package raceserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/typewarrior/typewarrior/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Server exposes the hub over HTTP: a websocket endpoint for the race
// protocol plus a read-only lobby listing.
type Server struct {
	hub      *Hub
	log      zerolog.Logger
	router   *gin.Engine
	upgrader websocket.Upgrader
}

// NewServer builds the gin router around a hub.
func NewServer(hub *Hub, log zerolog.Logger, allowedOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST"},
		}))
	}
	router.GET("/healthz", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	router.GET("/rooms", s.listRooms)
	router.GET("/ws", s.handleWS)
	s.router = router
	return s
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("race server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listRooms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, protocol.RoomsList{Rooms: s.hub.reg.List()})
}

func (s *Server) handleWS(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	cli := newClient(uuid.NewString())
	s.log.Debug().Str("conn", cli.id).Str("ip", ctx.ClientIP()).Msg("player connected")
	s.hub.events <- clientRegistered{cli: cli}

	go s.writePump(conn, cli)
	s.readPump(conn, cli)
}

// readPump decodes inbound frames into hub events. A failed read or
// an undecodable frame beyond tolerance ends the connection; the hub
// treats that as leaving.
func (s *Server) readPump(conn *websocket.Conn, cli *client) {
	defer func() {
		s.hub.events <- clientClosed{cli: cli}
		if cerr := conn.Close(); cerr != nil {
			_ = cerr
		}
		s.log.Debug().Str("conn", cli.id).Msg("player disconnected")
	}()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		kind, payload, err := protocol.DecodeClient(data, s.hub.validate)
		if err != nil {
			s.log.Debug().Err(err).Str("conn", cli.id).Msg("dropping bad frame")
			continue
		}
		s.hub.events <- clientEvent{cli: cli, kind: kind, payload: payload}
	}
}

// writePump drains the client outbox onto the socket and keeps the
// connection alive with pings.
func (s *Server) writePump(conn *websocket.Conn, cli *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-cli.outbox:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
					_ = err
				}
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
