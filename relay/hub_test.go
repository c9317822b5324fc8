package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lottoline/bingo-relay/config"
	"github.com/lottoline/bingo-relay/game"
)

// fakeConn captures everything the hub sends to one session.
type fakeConn struct {
	msgs   [][]byte
	closed bool
	fail   bool
}

func (f *fakeConn) Send(msg []byte) error {
	if f.fail {
		return errors.New("transport down")
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

type outMsg struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func (f *fakeConn) decoded(t *testing.T) []outMsg {
	t.Helper()
	out := make([]outMsg, 0, len(f.msgs))
	for _, raw := range f.msgs {
		var m outMsg
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) typesSent(t *testing.T) []string {
	t.Helper()
	var types []string
	for _, m := range f.decoded(t) {
		types = append(types, m.Type)
	}
	return types
}

func (f *fakeConn) lastOfType(t *testing.T, msgType string) (json.RawMessage, bool) {
	t.Helper()
	var data json.RawMessage
	found := false
	for _, m := range f.decoded(t) {
		if m.Type == msgType {
			data = m.Data
			found = true
		}
	}
	return data, found
}

func testConfig() config.Config {
	return config.Config{
		DefaultVariant:    "75ball",
		EmptyRoomGrace:    0, // immediate eviction unless a test overrides
		IdleSweepInterval: time.Hour,
		IdleStaleAfter:    time.Hour,
		SendBuffer:        8,
	}
}

// newTestHub returns a hub whose handlers are invoked directly: the event
// model is single-threaded, so driving the loop body from the test
// goroutine is equivalent to running it.
func newTestHub(cfg config.Config) *Hub {
	return NewHub(cfg)
}

func addSession(t *testing.T, h *Hub, id string) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s := &Session{ID: id, Conn: conn, ConnectedAt: time.Now()}
	require.NoError(t, h.registry.Register(s))
	return s, conn
}

func envelope(t *testing.T, msgType string, payload any) Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Envelope{Type: msgType, Data: data}
}

func join(t *testing.T, h *Hub, sessionID, gameID, name string) {
	t.Helper()
	h.route(sessionID, envelope(t, EventJoinGame, JoinGamePayload{GameID: gameID, Name: name}))
}

func TestRegistry_DuplicateRegisterFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Session{ID: "c1", Conn: &fakeConn{}}))
	assert.Error(t, r.Register(&Session{ID: "c1", Conn: &fakeConn{}}))
}

func TestRegistry_LookupAndUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Session{ID: "c1", Conn: &fakeConn{}}))

	_, ok := r.Lookup("c1")
	assert.True(t, ok)

	r.UpdateSession("c1", "alice", "tg:1", "g1")
	s, _ := r.Lookup("c1")
	assert.Equal(t, "alice", s.Name)
	assert.Equal(t, "g1", s.GameID)

	r.Unregister("c1")
	_, ok = r.Lookup("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestJoin_SnapshotToJoinerAndNotifyToRoom(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")

	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	// Joiner got a state snapshot.
	data, ok := c2.lastOfType(t, EventGameState)
	require.True(t, ok)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "g1", snap.GameID)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, "p1", snap.HostID)

	// Earlier member got player-joined; the joiner did not.
	data, ok = c1.lastOfType(t, EventPlayerJoined)
	require.True(t, ok)
	var pj PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(data, &pj))
	assert.Equal(t, "bob", pj.Player.Name)

	_, ok = c2.lastOfType(t, EventPlayerJoined)
	assert.False(t, ok, "joiner must be excluded from its own player-joined")
}

func TestJoin_RoomCreatedOnFirstJoin(t *testing.T) {
	h := newTestHub(testConfig())
	addSession(t, h, "p1")

	join(t, h, "p1", "fresh", "alice")

	rec, ok := h.rooms.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, game.StatusWaiting, rec.Status)
	assert.Equal(t, "75ball", rec.Variant)
}

func TestJoin_MalformedPayload(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")

	h.route("p1", Envelope{Type: EventJoinGame, Data: json.RawMessage(`{"gameId":`)})
	h.route("p1", envelope(t, EventJoinGame, JoinGamePayload{Name: "no-game-id"}))

	types := c1.typesSent(t)
	assert.Equal(t, []string{EventError, EventError}, types)
	assert.Equal(t, 0, h.rooms.Len())
}

func TestJoin_SwitchingRoomsLeavesTheOld(t *testing.T) {
	h := newTestHub(testConfig())
	addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")

	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")
	join(t, h, "p1", "g2", "alice")

	rec1, ok := h.rooms.Get("g1")
	require.True(t, ok)
	assert.Len(t, rec1.Players, 1)

	_, ok = c2.lastOfType(t, EventPlayerLeft)
	assert.True(t, ok, "old room is told about the departure")

	s, _ := h.registry.Lookup("p1")
	assert.Equal(t, "g2", s.GameID)
}

func TestCallNumber_BroadcastIncludesCaller(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	v := 7
	h.route("p1", envelope(t, EventCallNumber, CallNumberPayload{GameID: "g1", Value: &v, Display: "B7"}))

	for _, conn := range []*fakeConn{c1, c2} {
		data, ok := conn.lastOfType(t, EventNumberCalled)
		require.True(t, ok)
		var nc NumberCalledPayload
		require.NoError(t, json.Unmarshal(data, &nc))
		assert.Equal(t, 7, nc.Call.Value)
		assert.Equal(t, "B7", nc.Call.Display)
		require.Len(t, nc.CalledNumbers, 1)
		assert.Equal(t, 7, nc.CalledNumbers[0].Value)
		assert.Equal(t, 1, nc.CalledCount)
	}
}

func TestCallNumber_NonHostProducesNoChangeAndNoBroadcast(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	v := 12
	h.route("p2", envelope(t, EventCallNumber, CallNumberPayload{GameID: "g1", Value: &v}))

	rec, _ := h.rooms.Get("g1")
	assert.Empty(t, rec.CalledNumbers)
	for _, conn := range []*fakeConn{c1, c2} {
		_, ok := conn.lastOfType(t, EventNumberCalled)
		assert.False(t, ok)
		_, ok = conn.lastOfType(t, EventError)
		assert.False(t, ok, "silent drop: no error reply either")
	}
}

func TestCallNumber_UnknownGame(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")

	v := 3
	h.route("p1", envelope(t, EventCallNumber, CallNumberPayload{GameID: "ghost", Value: &v}))

	data, ok := c1.lastOfType(t, EventError)
	require.True(t, ok)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(data, &ep))
	assert.Equal(t, "Game not found", ep.Message)
}

func TestAnnounceWinner_FinishesAndBroadcasts(t *testing.T) {
	h := newTestHub(testConfig())
	addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	h.route("p2", envelope(t, EventAnnounceWinner, AnnounceWinnerPayload{GameID: "g1", Pattern: "row", Amount: 80}))

	rec, _ := h.rooms.Get("g1")
	assert.Equal(t, game.StatusFinished, rec.Status)
	require.NotNil(t, rec.Winner)
	assert.Equal(t, "p2", rec.Winner.ConnectionID)
	assert.Equal(t, "bob", rec.Winner.Name)

	data, ok := c2.lastOfType(t, EventWinnerAnnounced)
	require.True(t, ok, "announcer is included in the broadcast")
	var wa WinnerAnnouncedPayload
	require.NoError(t, json.Unmarshal(data, &wa))
	assert.Equal(t, game.StatusFinished, wa.Status)

	// A later announce overwrites.
	h.route("p1", envelope(t, EventAnnounceWinner, AnnounceWinnerPayload{GameID: "g1", Pattern: "diagonal"}))
	assert.Equal(t, "p1", rec.Winner.ConnectionID)
	assert.Equal(t, game.StatusFinished, rec.Status)
}

func TestChat_EchoesToWholeRoomAndTouchesActivity(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	rec, _ := h.rooms.Get("g1")
	before := rec.LastActivity

	h.now = func() time.Time { return before.Add(time.Minute) }
	h.route("p1", envelope(t, EventSendChat, ChatPayload{GameID: "g1", Text: "hello"}))

	assert.True(t, rec.LastActivity.After(before))
	for _, conn := range []*fakeConn{c1, c2} {
		data, ok := conn.lastOfType(t, EventChat)
		require.True(t, ok)
		var cp ChatBroadcastPayload
		require.NoError(t, json.Unmarshal(data, &cp))
		assert.Equal(t, "hello", cp.Text)
		assert.Equal(t, "alice", cp.Name)
	}
}

func TestChat_SendMessageAlias(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	join(t, h, "p1", "g1", "alice")

	h.route("p1", envelope(t, EventSendMessage, ChatPayload{Text: "via alias"}))

	_, ok := c1.lastOfType(t, EventChat)
	assert.True(t, ok)
}

func TestUpdateBoard_ExcludesSender(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	h.route("p1", envelope(t, EventUpdateBoard, BoardUpdatePayload{GameID: "g1", Board: json.RawMessage(`{"marked":[7]}`)}))

	_, ok := c1.lastOfType(t, EventBoardUpdated)
	assert.False(t, ok, "sender excluded from board-updated")
	data, ok := c2.lastOfType(t, EventBoardUpdated)
	require.True(t, ok)
	var bu BoardUpdatedPayload
	require.NoError(t, json.Unmarshal(data, &bu))
	assert.Equal(t, "p1", bu.From)
	assert.JSONEq(t, `{"marked":[7]}`, string(bu.Board))
}

func TestPing_PongToSenderOnly(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	h.route("p1", envelope(t, EventPing, struct{}{}))

	_, ok := c1.lastOfType(t, EventPong)
	assert.True(t, ok)
	_, ok = c2.lastOfType(t, EventPong)
	assert.False(t, ok)
}

func TestUnknownEventType_NamedInErrorReply(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")

	h.route("p1", Envelope{Type: "warp-drive", Data: json.RawMessage(`{}`)})

	data, ok := c1.lastOfType(t, EventError)
	require.True(t, ok)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(data, &ep))
	assert.Equal(t, "warp-drive", ep.Type)
}

func TestBroadcast_ExclusionAndFailureIsolation(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	_, c3 := addSession(t, h, "p3")
	join(t, h, "p1", "g1", "a")
	join(t, h, "p2", "g1", "b")
	join(t, h, "p3", "g1", "c")

	// p2's transport is broken; delivery to p3 must still happen.
	c2.fail = true
	rec, _ := h.rooms.Get("g1")
	before1 := len(c1.msgs)
	before3 := len(c3.msgs)

	h.broadcastRoom(rec, EventChat, ChatBroadcastPayload{GameID: "g1", Text: "x"}, "p1")

	assert.Len(t, c1.msgs, before1, "excluded connection receives nothing")
	assert.Len(t, c3.msgs, before3+1)
	_, hasChat := c3.lastOfType(t, EventChat)
	assert.True(t, hasChat)
}

func TestDisconnect_ReconcilesRoomThenUnregisters(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")
	join(t, h, "p1", "g1", "alice")
	join(t, h, "p2", "g1", "bob")

	h.handleDisconnect("p1")

	// p2 was told; p1 was not (its transport is gone anyway).
	data, ok := c2.lastOfType(t, EventPlayerLeft)
	require.True(t, ok)
	var pl PlayerLeftPayload
	require.NoError(t, json.Unmarshal(data, &pl))
	assert.Equal(t, "p1", pl.ConnectionID)
	assert.Equal(t, "alice", pl.Name)

	_, ok = c1.lastOfType(t, EventPlayerLeft)
	assert.False(t, ok)

	_, registered := h.registry.Lookup("p1")
	assert.False(t, registered)
	assert.True(t, c1.closed)

	// Room persists while p2 remains.
	rec, ok := h.rooms.Get("g1")
	require.True(t, ok)
	assert.Len(t, rec.Players, 1)
}

// End-to-end walk of the relay contract on one room.
func TestRelay_EndToEnd(t *testing.T) {
	h := newTestHub(testConfig())
	_, c1 := addSession(t, h, "p1")
	_, c2 := addSession(t, h, "p2")

	join(t, h, "p1", "G1", "P1")
	join(t, h, "p2", "G1", "P2")

	v := 7
	h.route("p1", envelope(t, EventCallNumber, CallNumberPayload{GameID: "G1", Value: &v}))

	for _, conn := range []*fakeConn{c1, c2} {
		data, ok := conn.lastOfType(t, EventNumberCalled)
		require.True(t, ok)
		var nc NumberCalledPayload
		require.NoError(t, json.Unmarshal(data, &nc))
		require.Len(t, nc.CalledNumbers, 1)
		assert.Equal(t, 7, nc.CalledNumbers[0].Value)
	}

	h.handleDisconnect("p1")
	_, ok := c2.lastOfType(t, EventPlayerLeft)
	require.True(t, ok)
	_, ok = h.rooms.Get("G1")
	require.True(t, ok, "room persists while P2 remains")

	h.handleDisconnect("p2")
	_, ok = h.rooms.Get("G1")
	assert.False(t, ok, "room removed once empty (no grace configured)")
	assert.Equal(t, 0, h.registry.Len())
}

// The loop-driven path: Connect/Submit/Disconnect through Run.
func TestHub_RunLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(testConfig())
	go h.Run(ctx)

	conn := &fakeConn{}
	h.Connect(&Session{ID: "p1", Conn: conn, ConnectedAt: time.Now()})
	h.Submit("p1", Envelope{Type: EventPing, Data: json.RawMessage(`{}`)})

	require.Eventually(t, func() bool {
		var ping bool
		h.do(func() { ping = len(conn.msgs) > 0 })
		return ping
	}, time.Second, 5*time.Millisecond)

	_, ok := conn.lastOfType(t, EventPong)
	assert.True(t, ok)

	health := h.Health()
	assert.Equal(t, 1, health.ActiveConnectionCount)

	h.Disconnect("p1")
	require.Eventually(t, func() bool {
		return h.Health().ActiveConnectionCount == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-h.stopped
	assert.Equal(t, Health{}, h.Health(), "queries after stop return zero values")
}
