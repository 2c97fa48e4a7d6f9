package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/storedbg/internal/debugger"
	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/testutil/testlog"
	"github.com/danmuck/storedbg/internal/variant"
)

func newBridge(t *testing.T) (*Bridge, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := store.Build(store.Description{
		Name: "/Demo",
		Variables: []store.VariableDesc{
			{Name: "/count", Type: "uint16", Init: int64(7)},
			{Name: "/label", Type: "string", Size: 8, Init: "ok"},
		},
	}, store.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	d := debugger.New()
	if err := d.MapStore(s); err != nil {
		t.Fatalf("map: %v", err)
	}
	return New(d, Options{Name: "bridge-test"}), s
}

func serve(b *Bridge, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	b.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestFrameEndpoint(t *testing.T) {
	testlog.Start(t)
	b, _ := newBridge(t)

	rr := serve(b, http.MethodPost, "/frame", "r/Demo/count")
	if rr.Code != http.StatusOK || rr.Body.String() != "7" {
		t.Fatalf("frame read: %d %q", rr.Code, rr.Body.String())
	}
	rr = serve(b, http.MethodPost, "/frame", "?")
	if rr.Body.String() != debugger.Capabilities {
		t.Fatalf("capabilities %q", rr.Body.String())
	}
	rr = serve(b, http.MethodPost, "/frame", strings.Repeat("e", MaxFrame+1))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized frame: %d", rr.Code)
	}
}

func TestObjectEndpoints(t *testing.T) {
	testlog.Start(t)
	b, s := newBridge(t)

	rr := serve(b, http.MethodGet, "/objects", "")
	var list struct {
		Objects []objectInfo `json:"objects"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Objects) != 2 || list.Objects[0].Name != "/Demo/count" || list.Objects[0].Type != "uint16" {
		t.Fatalf("unexpected list %+v", list.Objects)
	}

	rr = serve(b, http.MethodGet, "/objects/Demo/label", "")
	var read struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &read); err != nil || read.Value != "6f6b" {
		t.Fatalf("read label: %q %v", rr.Body.String(), err)
	}

	rr = serve(b, http.MethodPut, "/objects/Demo/count", "beef\n")
	if rr.Code != http.StatusOK {
		t.Fatalf("write: %d %s", rr.Code, rr.Body.String())
	}
	if v, err := variant.Load[uint16](s.Find("/count")); err != nil || v != 0xbeef {
		t.Fatalf("/count = %x %v", v, err)
	}

	if rr = serve(b, http.MethodPut, "/objects/Demo/count", "123456"); rr.Code != http.StatusBadRequest {
		t.Fatalf("overlong write: %d", rr.Code)
	}
	if rr = serve(b, http.MethodGet, "/objects/Demo/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing object: %d", rr.Code)
	}
	if rr = serve(b, http.MethodPut, "/objects/Other/x", "1"); rr.Code != http.StatusNotFound {
		t.Fatalf("missing store: %d", rr.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	b, _ := newBridge(t)

	rr := serve(b, http.MethodGet, "/health", "")
	var health struct {
		Status  string   `json:"status"`
		Service string   `json:"service"`
		Stores  []string `json:"stores"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Service != "bridge-test" || len(health.Stores) != 1 {
		t.Fatalf("unexpected health %+v", health)
	}

	serve(b, http.MethodPost, "/frame", "?")
	rr = serve(b, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "storedbg_debugger_commands_total") {
		t.Fatalf("metrics missing debugger counters")
	}
}

func TestOversizedWriteIsRejected(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	s, err := store.Build(store.Description{
		Name:      "/Big",
		Variables: []store.VariableDesc{{Name: "/blob", Type: "blob", Size: 600}},
	}, store.BuildOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	d := debugger.New()
	if err := d.MapStore(s); err != nil {
		t.Fatalf("map: %v", err)
	}
	b := New(d, Options{})

	rr := serve(b, http.MethodPut, "/objects/Big/blob", strings.Repeat("ab", 600))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized write: %d %s", rr.Code, rr.Body.String())
	}
	if !bytes.Equal(s.Buffer(), make([]byte, 600)) {
		t.Fatalf("rejected write must leave the blob untouched")
	}

	rr = serve(b, http.MethodPut, "/objects/Big/blob", strings.Repeat("ab", 500))
	if rr.Code != http.StatusOK {
		t.Fatalf("write within limit: %d %s", rr.Code, rr.Body.String())
	}
	if s.Buffer()[499] != 0xab || s.Buffer()[500] != 0 {
		t.Fatalf("unexpected blob tail % x", s.Buffer()[498:502])
	}
}
