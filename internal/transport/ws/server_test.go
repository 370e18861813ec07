package ws

import (
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tilephase/internal/catalog"
	"tilephase/internal/profile"
	"tilephase/internal/protocol"
	"tilephase/internal/session"
	"tilephase/internal/tuning"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(tuning.Defaults(), session.Options{})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	v := func(x int) catalog.Variant {
		return catalog.Variant{Sheet: "t.png", Region: catalog.Region{X: x, W: 16, H: 16}, Material: "m"}
	}
	s.LoadCatalog(&catalog.Catalog{
		NumPhases: 2,
		ByFamily:  map[int][]catalog.Variant{0: {v(0), v(16)}},
		Digest:    "d",
	})

	st := &profile.Store{Cols: 2, Rows: 1, TileW: 4, TileH: 4, Profiles: make([]profile.EdgeProfile, 2)}
	for i := range st.Profiles {
		st.Profiles[i].Index = i
		for d := 0; d < 4; d++ {
			st.Profiles[i].Strips[d] = []byte{255, 255, 255, 255}
			st.Profiles[i].EdgeHSL[d] = profile.HSL{H: 0.3, S: 1, L: 0.5}
		}
	}
	if err := s.Import(st); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return s
}

func dialTest(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return b
}

func TestServer_HandshakeAndQueries(t *testing.T) {
	sess := testSession(t)
	s := NewServer(sess, log.New(os.Stdout, "[ws-test] ", log.LstdFlags))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTest(t, srv)
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "inspector",
	}); err != nil {
		t.Fatalf("hello: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readMsg(t, conn), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.FamilyCount != 1 || welcome.NumPhases != 2 {
		t.Fatalf("welcome: %+v", welcome)
	}

	// Families query.
	if err := conn.WriteJSON(map[string]any{"type": protocol.TypeFamilies, "protocol_version": protocol.Version}); err != nil {
		t.Fatalf("query: %v", err)
	}
	var fams protocol.FamiliesMsg
	if err := json.Unmarshal(readMsg(t, conn), &fams); err != nil {
		t.Fatalf("families: %v", err)
	}
	if fams.FamilyCount != 1 || len(fams.Families) != 2 {
		t.Fatalf("families: %+v", fams)
	}

	// Phase swap: applied and broadcast.
	if err := conn.WriteJSON(protocol.SetPhaseMsg{
		Type:            protocol.TypeSetPhase,
		ProtocolVersion: protocol.Version,
		Phase:           1,
	}); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	var ph protocol.PhaseMsg
	if err := json.Unmarshal(readMsg(t, conn), &ph); err != nil {
		t.Fatalf("phase: %v", err)
	}
	if ph.Phase != 1 || ph.Writes != 2 {
		t.Fatalf("phase msg: %+v", ph)
	}
}

func TestServer_RejectsWrongVersion(t *testing.T) {
	sess := testSession(t)
	s := NewServer(sess, log.New(os.Stdout, "[ws-test] ", log.LstdFlags))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTest(t, srv)
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: "0.1",
		ClientName:      "old",
	}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close for bad protocol version")
	}
}

func TestServer_UnknownTypeError(t *testing.T) {
	sess := testSession(t)
	s := NewServer(sess, log.New(os.Stdout, "[ws-test] ", log.LstdFlags))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialTest(t, srv)
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "x",
	}); err != nil {
		t.Fatalf("hello: %v", err)
	}
	_ = readMsg(t, conn) // welcome

	if err := conn.WriteJSON(map[string]any{"type": "NOPE"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg protocol.ErrorMsg
	if err := json.Unmarshal(readMsg(t, conn), &msg); err != nil {
		t.Fatalf("error msg: %v", err)
	}
	if msg.Type != protocol.TypeError || msg.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("error: %+v", msg)
	}
}
