// Package worldlink connects the agent core to a remote host world over a
// websocket. A Session keeps a local mirror of the visible tiles, vitals,
// inventory and entities, and forwards effectors and commands as CMD messages.
package worldlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voxelagent.ai/internal/protocol"
	"voxelagent.ai/internal/world"
)

type Session struct {
	cfg Config
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}

	mu sync.RWMutex

	connected       bool
	lastConnectedAt time.Time
	lastErr         string

	conn    *websocket.Conn
	writeMu sync.Mutex

	agentID     string
	resumeToken string
	welcome     protocol.WelcomeMsg

	mirror  mirror
	pending map[string]chan protocol.CmdResultMsg

	obsNotify chan struct{}
}

type catalogWire struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Name            string          `json:"name"`
	Digest          string          `json:"digest"`
	Part            int             `json:"part"`
	TotalParts      int             `json:"total_parts"`
	Data            json.RawMessage `json:"data"`
}

func NewSession(cfg Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:         cfg.normalized(),
		log:         log.With(zap.String("component", "worldlink")),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		resumeToken: cfg.ResumeToken,
		mirror:      newMirror(),
		pending:     map[string]chan protocol.CmdResultMsg{},
		obsNotify:   make(chan struct{}, 1),
	}
}

// Start launches the connect/read loop. It reconnects with exponential
// backoff until Close.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Close stops the loop and waits for it. Safe to call without Start.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		// Wake a blocking ReadMessage.
		s.Disconnect()
		s.startOnce.Do(func() { close(s.done) })
		<-s.done
	})
}

// Disconnect drops the current connection. The loop reconnects unless closed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Connected:      s.connected,
		AgentID:        s.agentID,
		SessionID:      s.welcome.SessionID,
		ResumeToken:    s.resumeToken,
		URL:            s.cfg.URL,
		LastObsTick:    s.mirror.tick,
		LoadedTiles:    len(s.mirror.tiles),
		PaletteDigest:  s.mirror.paletteDigest,
		LastConnected:  s.lastConnectedAt,
		LastError:      s.lastErr,
		PendingResults: len(s.pending),
	}
}

// WaitReady blocks until the first observation after a welcome has been
// applied, or ctx ends.
func (s *Session) WaitReady(ctx context.Context) error {
	for {
		s.mu.RLock()
		ready := s.connected && s.mirror.observed
		s.mu.RUnlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return ErrNotConnected
		case <-s.obsNotify:
		}
	}
}

func (s *Session) run() {
	defer close(s.done)

	backoff := 200 * time.Millisecond
	for {
		if s.ctx.Err() != nil {
			s.Disconnect()
			return
		}

		err := s.connectAndReadLoop()
		s.Disconnect()
		s.failPending("connection lost")
		if s.ctx.Err() != nil {
			s.Disconnect()
			return
		}
		if err != nil {
			s.mu.Lock()
			s.connected = false
			s.lastErr = err.Error()
			s.mu.Unlock()
			s.log.Warn("world connection lost", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		select {
		case <-s.ctx.Done():
			s.Disconnect()
			return
		case <-time.After(backoff):
		}
		if backoff < s.cfg.MaxBackoff {
			backoff = min(backoff*2, s.cfg.MaxBackoff)
		}
	}
}

func (s *Session) connectAndReadLoop() error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := d.DialContext(s.ctx, s.cfg.URL, http.Header{})
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       s.cfg.AgentName,
		Capabilities: protocol.HelloCapabilities{
			DeltaVoxels: true,
			MaxPending:  64,
		},
	}
	s.mu.RLock()
	rt := strings.TrimSpace(s.resumeToken)
	s.mu.RUnlock()
	if rt != "" {
		hello.Auth = &protocol.HelloAuth{Token: rt}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.lastErr = ""
	s.mu.Unlock()
	if s.ctx.Err() != nil {
		_ = conn.Close()
		return nil
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			if s.ctx.Err() != nil {
				return nil
			}
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			s.log.Debug("undecodable message", zap.Error(err))
			continue
		}
		if !protocol.IsSupportedVersion(base.ProtocolVersion) {
			s.log.Warn("unsupported protocol version", zap.String("type", base.Type), zap.String("version", base.ProtocolVersion))
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			if w.WorldParams.TileSize != 0 && w.WorldParams.TileSize != world.TileSize {
				_ = conn.Close()
				return fmt.Errorf("worldlink: unsupported tile size %d", w.WorldParams.TileSize)
			}
			s.mu.Lock()
			s.welcome = w
			s.agentID = w.AgentID
			s.resumeToken = w.ResumeToken
			s.connected = true
			s.lastConnectedAt = time.Now()
			s.mirror.reset(w.WorldParams)
			s.mu.Unlock()
			s.log.Info("world session established",
				zap.String("agent_id", w.AgentID),
				zap.String("session_id", w.SessionID),
				zap.Int("min_y", w.WorldParams.MinY),
				zap.Int("max_y", w.WorldParams.MaxY))

		case protocol.TypeCatalog:
			var c catalogWire
			if err := json.Unmarshal(msg, &c); err != nil {
				continue
			}
			if strings.ToLower(strings.TrimSpace(c.Name)) != protocol.CatalogBlockPalette {
				continue
			}
			var defs []protocol.BlockDef
			if err := json.Unmarshal(c.Data, &defs); err != nil {
				s.log.Warn("bad block palette", zap.Error(err))
				continue
			}
			s.mu.Lock()
			s.mirror.setPalette(defs, c.Digest)
			s.mu.Unlock()

		case protocol.TypeObs:
			var o protocol.ObsMsg
			if err := json.Unmarshal(msg, &o); err != nil {
				s.log.Debug("bad observation", zap.Error(err))
				continue
			}
			s.mu.Lock()
			if o.AgentID != "" {
				s.agentID = o.AgentID
			}
			bad := s.mirror.apply(o)
			s.mu.Unlock()
			for _, t := range bad {
				s.log.Warn("dropped malformed tile", zap.Int("x", t.X), zap.Int("z", t.Z))
			}
			select {
			case s.obsNotify <- struct{}{}:
			default:
			}

		case protocol.TypeCmdResult:
			var r protocol.CmdResultMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			s.mu.Lock()
			ch, ok := s.pending[r.ID]
			delete(s.pending, r.ID)
			s.mu.Unlock()
			if ok {
				ch <- r
			}
		}
	}
}

func (s *Session) failPending(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		ch <- protocol.CmdResultMsg{ID: id, Code: protocol.ErrInternal, Message: reason}
		delete(s.pending, id)
	}
}

// Send issues one CMD and waits for its result, bounded by ctx and the
// configured command timeout.
func (s *Session) Send(ctx context.Context, cmd protocol.CmdMsg) (protocol.CmdResultMsg, error) {
	cmd.Type = protocol.TypeCmd
	cmd.ProtocolVersion = protocol.Version
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	b, err := json.Marshal(cmd)
	if err != nil {
		return protocol.CmdResultMsg{}, fmt.Errorf("worldlink: encode cmd: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CommandTimeout)
	defer cancel()

	ch := make(chan protocol.CmdResultMsg, 1)
	s.mu.Lock()
	conn := s.conn
	if conn == nil || !s.connected {
		s.mu.Unlock()
		return protocol.CmdResultMsg{}, ErrNotConnected
	}
	s.pending[cmd.ID] = ch
	s.mu.Unlock()

	forget := func() {
		s.mu.Lock()
		delete(s.pending, cmd.ID)
		s.mu.Unlock()
	}

	s.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err = conn.WriteMessage(websocket.TextMessage, b)
	s.writeMu.Unlock()
	if err != nil {
		forget()
		return protocol.CmdResultMsg{}, fmt.Errorf("worldlink: write cmd: %w", err)
	}

	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		forget()
		return protocol.CmdResultMsg{}, fmt.Errorf("worldlink: %s %s: %w", cmd.Kind, cmd.ID, ctx.Err())
	}
}

func (s *Session) do(ctx context.Context, cmd protocol.CmdMsg) bool {
	r, err := s.Send(ctx, cmd)
	if err != nil {
		s.log.Warn("command not delivered", zap.String("kind", cmd.Kind), zap.Error(err))
		return false
	}
	if !r.OK {
		s.log.Info("command refused",
			zap.String("kind", cmd.Kind),
			zap.String("command", cmd.Command),
			zap.String("code", r.Code),
			zap.String("message", r.Message))
	}
	return r.OK
}

// world.Commander

func (s *Session) Execute(ctx context.Context, command string) bool {
	return s.do(ctx, protocol.CmdMsg{Kind: protocol.CmdCommand, Command: command})
}

// world.Agent effectors. The interface carries no context; each call is
// bounded by the command timeout and by Close.

func (s *Session) Teleport(to world.Vec3) bool {
	t := [3]float64{to.X, to.Y, to.Z}
	return s.do(s.ctx, protocol.CmdMsg{Kind: protocol.CmdTeleport, Target: &t})
}

func (s *Session) Attack(entityID string) bool {
	return s.do(s.ctx, protocol.CmdMsg{Kind: protocol.CmdAttack, EntityID: entityID})
}

func (s *Session) UseItem(item string) bool {
	return s.do(s.ctx, protocol.CmdMsg{Kind: protocol.CmdUse, Item: item})
}

func (s *Session) StopUsing() bool {
	return s.do(s.ctx, protocol.CmdMsg{Kind: protocol.CmdStopUsing})
}
