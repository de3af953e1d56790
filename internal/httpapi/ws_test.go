package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestServersWS_InitialSnapshot(t *testing.T) {
	s, _, _ := newTestServer(t, map[string]*fakeSession{"todayinfo": {}}, nil)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/servers"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// The first snapshot is pushed immediately on connect.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var snapshot struct {
		Servers map[string]struct {
			Status string `json:"status"`
			Active bool   `json:"active"`
		} `json:"servers"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("snapshot not JSON: %v\nraw: %s", err, data)
	}
	entry, ok := snapshot.Servers["todayinfo"]
	if !ok {
		t.Fatalf("snapshot missing todayinfo: %s", data)
	}
	if entry.Status != "running" || !entry.Active {
		t.Errorf("unexpected entry: %+v", entry)
	}
}
