package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/version"
)

func TestHealthzHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	healthzHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	healthzHandler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestServerInfoHandler(t *testing.T) {
	oldVersion := version.Version
	version.Version = "1.7.0"
	t.Cleanup(func() { version.Version = oldVersion })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/server-info", nil)
	serverInfoHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body protocol.ServerInfo
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode server info response: %v", err)
	}
	if body.Name != "radiator" || body.APIVersion != 1 || body.Version != "v1.7.0" {
		t.Fatalf("unexpected server info: %+v", body)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/server-info", nil)
	serverInfoHandler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for non-GET method, got %d", rec.Code)
	}
}

func TestServerEnvOrDefault(t *testing.T) {
	_ = os.Unsetenv("RADIATOR_TEST_ENV")
	if got := envOrDefault("RADIATOR_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("RADIATOR_TEST_ENV", "value")
	if got := envOrDefault("RADIATOR_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("expected env value, got %q", got)
	}
}

func TestGRPCAddrFromEnv(t *testing.T) {
	_ = os.Unsetenv("RADIATOR_GRPC_ADDR")
	if got := grpcAddrFromEnv(); got != ":9090" {
		t.Fatalf("default grpc addr: got %q", got)
	}
	t.Setenv("RADIATOR_GRPC_ADDR", " 127.0.0.1:9999 ")
	if got := grpcAddrFromEnv(); got != "127.0.0.1:9999" {
		t.Fatalf("configured grpc addr: got %q", got)
	}
	t.Setenv("RADIATOR_GRPC_ADDR", "")
	if got := grpcAddrFromEnv(); got != "" {
		t.Fatalf("empty grpc addr should disable grpc, got %q", got)
	}
}

func TestRefreshIntervalFromEnv(t *testing.T) {
	cases := map[string]time.Duration{
		"":    defaultRefreshInterval,
		"30":  30 * time.Second,
		"0":   defaultRefreshInterval,
		"-5":  defaultRefreshInterval,
		"abc": defaultRefreshInterval,
	}
	for raw, want := range cases {
		t.Setenv("RADIATOR_REFRESH_SECONDS", raw)
		if got := refreshIntervalFromEnv(); got != want {
			t.Fatalf("refresh interval for %q: got %v want %v", raw, got, want)
		}
	}
}

func TestParseGroupedParam(t *testing.T) {
	if got, err := parseGroupedParam("", true); err != nil || !got {
		t.Fatalf("empty param: got %v err=%v", got, err)
	}
	if got, err := parseGroupedParam(" false ", true); err != nil || got {
		t.Fatalf("false param: got %v err=%v", got, err)
	}
	if got, err := parseGroupedParam("1", false); err != nil || !got {
		t.Fatalf("numeric param: got %v err=%v", got, err)
	}
	if _, err := parseGroupedParam("maybe", false); err == nil {
		t.Fatal("expected error for invalid param")
	}
}

func TestListenPort(t *testing.T) {
	cases := []struct {
		addr string
		port int
		ok   bool
	}{
		{addr: "", port: 8080, ok: true},
		{addr: ":8080", port: 8080, ok: true},
		{addr: "0.0.0.0:9000", port: 9000, ok: true},
		{addr: "[::1]:7000", port: 7000, ok: true},
		{addr: "8181", port: 8181, ok: true},
		{addr: "host:http"},
		{addr: ":0"},
		{addr: "bad:addr:value"},
	}
	for _, tc := range cases {
		port, ok := listenPort(tc.addr)
		if ok != tc.ok || (ok && port != tc.port) {
			t.Fatalf("listenPort(%q): got %d,%v want %d,%v", tc.addr, port, ok, tc.port, tc.ok)
		}
	}
}

func TestAdvertiseIPs(t *testing.T) {
	mustCIDR := func(s string) net.Addr {
		ip, ipNet, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatalf("parse cidr %q: %v", s, err)
		}
		ipNet.IP = ip
		return ipNet
	}
	got := advertiseIPs([]net.Addr{
		mustCIDR("127.0.0.1/8"),
		mustCIDR("fe80::1/64"),
		mustCIDR("fd00::5/64"),
		mustCIDR("192.168.1.20/24"),
		mustCIDR("10.0.0.7/8"),
		mustCIDR("192.168.1.20/24"),
		mustCIDR("0.0.0.0/0"),
		&net.IPAddr{IP: net.ParseIP("10.9.9.9")},
		nil,
	})
	var names []string
	for _, ip := range got {
		names = append(names, ip.String())
	}
	if diff := cmp.Diff([]string{"10.0.0.7", "192.168.1.20", "fd00::5"}, names); diff != "" {
		t.Fatalf("advertised ips (-want +got):\n%s", diff)
	}
	if advertiseIPs(nil) != nil {
		t.Fatal("expected nil for no addresses")
	}
}
