package gameserver_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/bot"
	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/session"
	"github.com/pmourey/fungame/internal/gameserver"
)

type scriptedSource struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func (s *scriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.vals) {
		return 0
	}
	v := s.vals[s.i] % n
	s.i++
	return v
}

type fixture struct {
	ts       *httptest.Server
	registry *session.Registry
}

func newFixture(t *testing.T, autoBot bool, vals ...int) *fixture {
	t.Helper()
	logger := zap.NewNop()
	roller := dice.NewRoller(&scriptedSource{vals: vals}, logger)
	hub := gameserver.NewHub(logger)
	registry := session.NewRegistry(session.DefaultConfig(), roller, hub.OnStateChanged, logger)

	botCfg := bot.DefaultConfig()
	botCfg.ThinkInterval = time.Hour // ticks never fire during a test
	sup := bot.NewSupervisor(botCfg, roller, logger)

	templates := []*entity.Template{
		{ID: "goblin", Name: "Goblin", MaxHP: 7, AC: 12},
	}
	svc := gameserver.NewService(registry, sup, templates, autoBot, logger)
	srv := gameserver.NewServer("127.0.0.1:0", svc, hub, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		svc.Shutdown()
	})
	return &fixture{ts: ts, registry: registry}
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (f *fixture) createGame(t *testing.T, name string, capacity int) string {
	t.Helper()
	var sum session.Summary
	resp := f.do(t, http.MethodPost, "/api/games", map[string]any{"name": name, "capacity": capacity}, &sum)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, sum.ID)
	return sum.ID
}

func (f *fixture) join(t *testing.T, gameID, name string) entity.Entity {
	t.Helper()
	var e entity.Entity
	resp := f.do(t, http.MethodPost, "/api/games/"+gameID+"/join", map[string]string{"name": name}, &e)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return e
}

func TestHTTP_CreateListState(t *testing.T) {
	f := newFixture(t, false)

	id := f.createGame(t, "Arena", 4)

	var list []session.Summary
	resp := f.do(t, http.MethodGet, "/api/games", nil, &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, session.StatusWaiting, list[0].Status)

	e := f.join(t, id, "Alice")
	assert.Equal(t, "Alice", e.Name)
	assert.True(t, e.Connected)

	var snap session.Snapshot
	resp = f.do(t, http.MethodGet, "/api/games/"+id+"/state", nil, &snap)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, e.ID, snap.Players[0].ID)

	var errBody map[string]string
	resp = f.do(t, http.MethodGet, "/api/games/nope/state", nil, &errBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "session_not_found", errBody["error"])
}

func TestHTTP_CreateValidation(t *testing.T) {
	f := newFixture(t, false)

	resp := f.do(t, http.MethodPost, "/api/games", map[string]any{"capacity": 2}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/games", map[string]any{"name": "Arena"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_ActionFlow(t *testing.T) {
	// Initiative A=20, B=1.
	f := newFixture(t, false, 19, 0)

	id := f.createGame(t, "Arena", 2)
	a := f.join(t, id, "A")
	b := f.join(t, id, "B")

	resp := f.do(t, http.MethodPost, "/api/games/"+id+"/start", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/start", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "starting twice conflicts")

	var res session.Result
	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/action",
		map[string]string{"actorId": a.ID, "type": "end_turn"}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "end_turn", res.Action)
	assert.Equal(t, b.ID, res.Next)

	var errBody map[string]string
	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/action",
		map[string]string{"actorId": a.ID, "type": "end_turn"}, &errBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "not_your_turn", errBody["error"])

	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/action",
		map[string]string{"actorId": b.ID, "type": "dance"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown_action", errBody["error"])

	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/action",
		map[string]string{"actorId": "ghost", "type": "end_turn"}, &errBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "actor_not_found", errBody["error"])
}

func TestHTTP_JoinFullSession(t *testing.T) {
	f := newFixture(t, false)
	id := f.createGame(t, "Arena", 1)
	f.join(t, id, "A")

	var errBody map[string]string
	resp := f.do(t, http.MethodPost, "/api/games/"+id+"/join", map[string]string{"name": "B"}, &errBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "session_full", errBody["error"])
}

func TestHTTP_SpawnMonster(t *testing.T) {
	f := newFixture(t, false)
	id := f.createGame(t, "Arena", 4)

	var e entity.Entity
	resp := f.do(t, http.MethodPost, "/api/games/"+id+"/monsters",
		map[string]string{"templateId": "goblin"}, &e)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Goblin", e.Name)
	assert.Equal(t, 7, e.HP)

	var errBody map[string]string
	resp = f.do(t, http.MethodPost, "/api/games/"+id+"/monsters",
		map[string]string{"templateId": "dragon"}, &errBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "template_not_found", errBody["error"])
}

func TestHTTP_AutoBotJoinsAndStarts(t *testing.T) {
	f := newFixture(t, true)
	id := f.createGame(t, "Arena", 2)
	f.join(t, id, "Alice")

	var snap session.Snapshot
	resp := f.do(t, http.MethodGet, "/api/games/"+id+"/state", nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.StatusRunning, snap.Status)
	require.Len(t, snap.Players, 2, "agent joined alongside the player")

	names := []string{snap.Players[0].Name, snap.Players[1].Name}
	assert.Contains(t, names, "Computer")
	assert.Len(t, snap.TurnQueue, 2)
}

func TestHTTP_Leave(t *testing.T) {
	f := newFixture(t, false)
	id := f.createGame(t, "Arena", 2)
	e := f.join(t, id, "A")

	resp := f.do(t, http.MethodPost, "/api/games/"+id+"/leave",
		map[string]string{"entityId": e.ID}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var snap session.Snapshot
	f.do(t, http.MethodGet, "/api/games/"+id+"/state", nil, &snap)
	assert.False(t, snap.Players[0].Connected)
	assert.Len(t, snap.Players, 1, "leaving never removes the entity")
}

func TestHTTP_Events_InitialFrameAndUpdates(t *testing.T) {
	f := newFixture(t, false)
	id := f.createGame(t, "Arena", 2)
	f.join(t, id, "A")

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/api/games/"+id+"/events", nil)
	require.NoError(t, err)
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	readFrame := func(r *bufio.Reader) map[string]json.RawMessage {
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				var frame map[string]json.RawMessage
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &frame))
				return frame
			}
		}
	}

	rd := bufio.NewReader(resp.Body)
	frame := readFrame(rd)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(frame["state"], &snap))
	assert.Equal(t, id, snap.ID)
	assert.Len(t, snap.Players, 1)

	// A second join must arrive as a fresh frame.
	f.join(t, id, "B")
	frame = readFrame(rd)
	require.NoError(t, json.Unmarshal(frame["state"], &snap))
	assert.Len(t, snap.Players, 2)
}

func TestHTTP_CORSPreflight(t *testing.T) {
	f := newFixture(t, false)
	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/games", nil)
	require.NoError(t, err)
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
