package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/auth"
	"github.com/nerrad567/enodebd/internal/devices"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/infrastructure/config"
	"github.com/nerrad567/enodebd/internal/infrastructure/database/databasetest"
	"github.com/nerrad567/enodebd/internal/infrastructure/logging"
	"github.com/nerrad567/enodebd/internal/manager"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/tr069"
)

const (
	testSecret = "test-secret-key-at-least-32-characters-long"
	rtsSerial  = "120200002618AGP0003"
)

type testEnv struct {
	srv       *Server
	router    http.Handler
	operators *auth.SQLiteOperatorRepository
	records   *enodeb.SQLiteRepository
	audit     *audit.SQLiteRepository
}

// testServer wires a Server over a migrated in-memory database and a
// manager with the built-in device profiles.
func testServer(t *testing.T) *testEnv {
	t.Helper()

	db := databasetest.Open(t)
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	wsCfg := config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}

	settings, err := fleet.Parse([]byte("defaults:\n  parameters:\n    TAC: 1\n"))
	if err != nil {
		t.Fatalf("fleet.Parse: %v", err)
	}

	env := &testEnv{
		operators: auth.NewOperatorRepository(db.DB),
		records:   enodeb.NewSQLiteRepository(db.DB),
		audit:     audit.NewSQLiteRepository(db.DB),
	}
	hub := NewHub(wsCfg, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	mgr, err := manager.New(manager.Deps{
		Profiles: devices.Default(),
		Settings: settings,
		Timers:   sm.DefaultTimers(),
		Logger:   log,
		Store:    env.records,
		Hub:      hub,
		Audit:    env.audit,
	})
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}

	srv, err := New(Deps{
		Config:    config.APIConfig{Host: "127.0.0.1"},
		WS:        wsCfg,
		Logger:    log,
		Manager:   mgr,
		Records:   env.records,
		Audit:     env.audit,
		Auth:      auth.NewService(env.operators, auth.NewTokenRepository(db.DB), auth.ServiceConfig{Secret: testSecret}),
		Operators: env.operators,
		DB:        db,
		Hub:       hub,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.srv = srv
	env.router = srv.buildRouter()
	return env
}

// createOperator stores an active account and returns it.
func (e *testEnv) createOperator(t *testing.T, username, password string, role auth.Role) *auth.Operator {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	op := &auth.Operator{Username: username, DisplayName: username, PasswordHash: hash, Role: role, IsActive: true}
	if err := e.operators.Create(context.Background(), op); err != nil {
		t.Fatalf("creating operator: %v", err)
	}
	return op
}

// token returns a bearer token for a fresh account with role.
func (e *testEnv) token(t *testing.T, role auth.Role) string {
	t.Helper()
	op := e.createOperator(t, "op-"+string(role), "long-enough-password", role)
	tok, err := auth.IssueAccessToken(op, testSecret, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func envelopeJSON(t *testing.T, msg tr069.Message) string {
	t.Helper()
	env, err := tr069.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(b)
}

func rtsInform(serial string, events ...string) *tr069.Inform {
	return &tr069.Inform{
		DeviceID: tr069.DeviceID{Manufacturer: "Baicells", OUI: "48BF74", SerialNumber: serial},
		Events:   events,
		Parameters: []tr069.ParameterValue{
			{Name: "Device.DeviceInfo.SoftwareVersion", Value: "BaiBS_RTS_3.1.6"},
		},
	}
}

// connect runs a periodic Inform so the manager holds a machine for serial.
func (e *testEnv) connect(t *testing.T, token, serial string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/enodebs/"+serial+"/exchange", token, envelopeJSON(t, rtsInform(serial, tr069.EventPeriodic)))
	if w.Code != http.StatusOK {
		t.Fatalf("inform status = %d, body %s", w.Code, w.Body.String())
	}
}

// ─── Health and Middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := testServer(t)
	w := env.do(t, http.MethodGet, "/api/v1/health", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp struct {
		Status     string            `json:"status"`
		Version    string            `json:"version"`
		Components map[string]string `json:"components"`
	}
	decode(t, w, &resp)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v, want ok/test", resp)
	}
	if resp.Components["database"] != "ok" {
		t.Errorf("database component = %q, want ok", resp.Components["database"])
	}
}

func TestRequestID(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want http://localhost:3000", got)
	}
}

func TestMetrics(t *testing.T) {
	env := testServer(t)
	env.connect(t, env.token(t, auth.RoleOperator), rtsSerial)

	w := env.do(t, http.MethodGet, "/api/v1/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var m SystemMetrics
	decode(t, w, &m)
	if m.Devices.Live != 1 || m.Devices.ByType[devices.BaicellsRTS] != 1 {
		t.Errorf("devices = %+v, want one live RTS", m.Devices)
	}
}

// ─── Authentication ────────────────────────────────────────────────

func TestLogin(t *testing.T) {
	env := testServer(t)
	env.createOperator(t, "alice", "correct-horse", auth.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"username":"alice","password":"correct-horse"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var pair auth.TokenPair
	decode(t, w, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", pair.TokenType)
	}

	me := env.do(t, http.MethodGet, "/api/v1/auth/me", pair.AccessToken, "")
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	var resp struct {
		Username    string   `json:"username"`
		Permissions []string `json:"permissions"`
	}
	decode(t, me, &resp)
	if resp.Username != "alice" || len(resp.Permissions) != len(auth.PermissionsForRole(auth.RoleAdmin)) {
		t.Errorf("me = %+v", resp)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := testServer(t)
	env.createOperator(t, "alice", "correct-horse", auth.RoleAdmin)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"bob","password":"correct-horse"}`,
	} {
		if w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", body); w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", body, w.Code)
		}
	}
}

func TestRefreshRotates(t *testing.T) {
	env := testServer(t)
	env.createOperator(t, "alice", "correct-horse", auth.RoleViewer)

	var pair auth.TokenPair
	decode(t, env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"username":"alice","password":"correct-horse"}`), &pair)

	body := `{"refresh_token":"` + pair.RefreshToken + `"}`
	if w := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", body); w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh status = %d, want 401", w.Code)
	}
}

func TestPermissions(t *testing.T) {
	env := testServer(t)
	viewer := env.token(t, auth.RoleViewer)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/enodebs", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/enodebs", "garbage", http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/api/v1/enodebs", viewer, http.StatusOK},
		{"viewer reboots", http.MethodPost, "/api/v1/enodebs/X/reboot", viewer, http.StatusForbidden},
		{"viewer exchanges", http.MethodPost, "/api/v1/enodebs/X/exchange", viewer, http.StatusForbidden},
		{"viewer reads audit", http.MethodGet, "/api/v1/audit", viewer, http.StatusForbidden},
		{"viewer manages operators", http.MethodGet, "/api/v1/operators", viewer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, tt.method, tt.path, tt.token, ""); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// ─── eNodeBs ───────────────────────────────────────────────────────

func TestExchange_InformCreatesDevice(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleOperator)

	w := env.do(t, http.MethodPost, "/api/v1/enodebs/"+rtsSerial+"/exchange", tok, envelopeJSON(t, rtsInform(rtsSerial, tr069.EventPeriodic)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var reply tr069.Envelope
	decode(t, w, &reply)
	if reply.Kind != tr069.KindInformResponse {
		t.Errorf("reply kind = %q, want InformResponse", reply.Kind)
	}

	var list struct {
		Enodebs []enodebView `json:"enodebs"`
		Count   int          `json:"count"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/enodebs", tok, ""), &list)
	if list.Count != 1 || !list.Enodebs[0].Live || list.Enodebs[0].DeviceType != devices.BaicellsRTS {
		t.Fatalf("list = %+v, want one live RTS", list)
	}

	get := env.do(t, http.MethodGet, "/api/v1/enodebs/"+rtsSerial, tok, "")
	if get.Code != http.StatusOK {
		t.Fatalf("get status = %d", get.Code)
	}
	var detail struct {
		Live   bool      `json:"live"`
		Status sm.Status `json:"status"`
	}
	decode(t, get, &detail)
	if !detail.Live || detail.Status.State != sm.StateWaitEmpty {
		t.Errorf("detail = live %v state %q, want live in %q", detail.Live, detail.Status.State, sm.StateWaitEmpty)
	}
}

func TestExchange_Errors(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleOperator)

	tests := []struct {
		name   string
		serial string
		body   string
		want   int
	}{
		{"not json", rtsSerial, "{", http.StatusBadRequest},
		{"unknown kind", rtsSerial, `{"kind":"Bogus"}`, http.StatusBadRequest},
		{"no machine yet", rtsSerial, envelopeJSON(t, &tr069.EmptyTurn{}), http.StatusNotFound},
		{"serial mismatch", "OTHER", envelopeJSON(t, rtsInform(rtsSerial, tr069.EventPeriodic)), http.StatusBadRequest},
		{"unidentified", "SN1", envelopeJSON(t, &tr069.Inform{DeviceID: tr069.DeviceID{OUI: "001122", SerialNumber: "SN1"}}), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/enodebs/"+tt.serial+"/exchange", tok, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestGetEnodeb_StoredOnly(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleViewer)

	rec := &enodeb.Record{Serial: "STORED1", DeviceType: devices.FreedomFiOne, State: sm.StateWaitInform}
	if err := env.records.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/v1/enodebs/STORED1", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Live   bool          `json:"live"`
		Record enodeb.Record `json:"record"`
	}
	decode(t, w, &resp)
	if resp.Live || resp.Record.DeviceType != devices.FreedomFiOne {
		t.Errorf("resp = %+v, want stored FreedomFi record", resp)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/enodebs/NOPE", tok, ""); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestListTransitions(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleOperator)
	env.connect(t, tok, rtsSerial)

	w := env.do(t, http.MethodGet, "/api/v1/enodebs/"+rtsSerial+"/transitions?limit=10", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Transitions []enodeb.Transition `json:"transitions"`
	}
	decode(t, w, &resp)
	if len(resp.Transitions) == 0 {
		t.Fatal("no transitions recorded")
	}
	if got := resp.Transitions[0].To; got != sm.StateWaitEmpty {
		t.Errorf("latest transition to %q, want %q", got, sm.StateWaitEmpty)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/enodebs/"+rtsSerial+"/transitions?limit=x", tok, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}
}

func TestReboot(t *testing.T) {
	env := testServer(t)
	admin := env.token(t, auth.RoleAdmin)

	if w := env.do(t, http.MethodPost, "/api/v1/enodebs/"+rtsSerial+"/reboot", admin, ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown device status = %d, want 404", w.Code)
	}

	env.connect(t, admin, rtsSerial)
	if w := env.do(t, http.MethodPost, "/api/v1/enodebs/"+rtsSerial+"/reboot", admin, ""); w.Code != http.StatusAccepted {
		t.Fatalf("reboot status = %d, body %s", w.Code, w.Body.String())
	}

	st, err := env.srv.manager.Status(rtsSerial)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Pending != sm.StateReboot {
		t.Errorf("pending = %q, want %q", st.Pending, sm.StateReboot)
	}

	w := env.do(t, http.MethodGet, "/api/v1/audit?action=reboot", admin, "")
	var page audit.Page
	decode(t, w, &page)
	if page.Total != 1 || page.Entries[0].EntityID != rtsSerial || page.Entries[0].Source != audit.SourceAPI {
		t.Errorf("audit page = %+v, want one API reboot of %s", page, rtsSerial)
	}
}

func TestReset(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleOperator)
	env.connect(t, tok, rtsSerial)

	w := env.do(t, http.MethodPost, "/api/v1/enodebs/"+rtsSerial+"/reset", tok, "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["state"] != sm.StateWaitInform {
		t.Errorf("state = %q, want %q", resp["state"], sm.StateWaitInform)
	}
}

// ─── Operators ─────────────────────────────────────────────────────

func TestCreateOperator(t *testing.T) {
	env := testServer(t)
	admin := env.token(t, auth.RoleAdmin)

	body := `{"username":"noc-1","password":"long-enough","role":"operator"}`
	w := env.do(t, http.MethodPost, "/api/v1/operators", admin, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var op auth.Operator
	decode(t, w, &op)
	if op.ID == "" || op.Role != auth.RoleOperator || !op.IsActive {
		t.Errorf("operator = %+v", op)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/operators", admin, body); w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	for _, bad := range []string{
		`{"username":"x","password":"short"}`,
		`{"username":"bad name","password":"long-enough"}`,
		`{"username":"y","password":"long-enough","role":"root"}`,
	} {
		if w := env.do(t, http.MethodPost, "/api/v1/operators", admin, bad); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, w.Code)
		}
	}

	w = env.do(t, http.MethodPatch, "/api/v1/operators/"+op.ID, admin, `{"is_active":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d", w.Code)
	}
	decode(t, w, &op)
	if op.IsActive {
		t.Error("operator still active")
	}

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"username":"noc-1","password":"long-enough"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("disabled login status = %d, want 401", w.Code)
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────

func TestWSTicket_SingleUse(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleViewer)

	w := env.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Ticket string `json:"ticket"`
	}
	decode(t, w, &resp)

	entry, ok := env.srv.tickets.redeem(resp.Ticket)
	if !ok || entry.role != auth.RoleViewer {
		t.Fatalf("first redeem = %+v, %v", entry, ok)
	}
	if _, ok := env.srv.tickets.redeem(resp.Ticket); ok {
		t.Error("ticket redeemed twice")
	}
}

func TestWSTicket_Expiry(t *testing.T) {
	ts := newTicketStore()
	now := time.Now()
	ts.now = func() time.Time { return now }
	ticket := ts.issue("op-1", auth.RoleViewer)

	now = now.Add(ticketTTL + time.Second)
	if _, ok := ts.redeem(ticket); ok {
		t.Error("expired ticket redeemed")
	}

	stale := ts.issue("op-1", auth.RoleViewer)
	now = now.Add(ticketTTL + time.Second)
	ts.cleanExpired()
	ts.mu.Lock()
	_, kept := ts.tickets[stale]
	ts.mu.Unlock()
	if kept {
		t.Error("cleanExpired kept an expired ticket")
	}
}

func newTestClient(hub *Hub, channels ...string) *WSClient {
	c := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
		serials:       make(map[string]struct{}),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	hub.Register(c)
	return c
}

func TestHub_Broadcast(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
	hub := NewHub(config.WebSocketConfig{}, log)

	status := newTestClient(hub, manager.ChannelStatus)
	events := newTestClient(hub, manager.ChannelEvent)
	filtered := newTestClient(hub, manager.ChannelStatus)
	filtered.serials["OTHER"] = struct{}{}

	hub.Broadcast(manager.ChannelStatus, manager.StatusView{Serial: rtsSerial, State: sm.StateWaitInform})

	select {
	case msg := <-status.send:
		var got WSMessage
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != WSTypeEvent || got.EventType != manager.ChannelStatus {
			t.Errorf("message = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscribed client got nothing")
	}
	for name, c := range map[string]*WSClient{"unsubscribed": events, "filtered": filtered} {
		select {
		case <-c.send:
			t.Errorf("%s client received the status", name)
		default:
		}
	}

	if hub.ClientCount() != 3 {
		t.Errorf("client count = %d, want 3", hub.ClientCount())
	}
	hub.Unregister(status)
	hub.Unregister(status)
	if hub.ClientCount() != 2 {
		t.Errorf("client count = %d, want 2", hub.ClientCount())
	}
}

func TestWebSocket_SubscribeGetsSnapshot(t *testing.T) {
	env := testServer(t)
	tok := env.token(t, auth.RoleOperator)
	env.connect(t, tok, rtsSerial)

	var resp struct {
		Ticket string `json:"ticket"`
	}
	decode(t, env.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", tok, ""), &resp)

	ts := httptest.NewServer(env.router)
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?ticket=" + resp.Ticket

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{
		"type":    WSTypeSubscribe,
		"id":      "1",
		"payload": WSSubscribePayload{Channels: []string{manager.ChannelStatus}},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack, snap struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != WSTypeResponse {
		t.Fatalf("ack = %+v, %v", ack, err)
	}
	if err := conn.ReadJSON(&snap); err != nil || snap.Type != WSTypeSnapshot {
		t.Fatalf("snapshot = %+v, %v", snap, err)
	}
	var views []manager.StatusView
	if err := json.Unmarshal(snap.Payload, &views); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(views) != 1 || views[0].Serial != rtsSerial {
		t.Errorf("snapshot = %+v, want %s", views, rtsSerial)
	}

	// The ticket is spent.
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("second dial with the same ticket succeeded")
	}
}
