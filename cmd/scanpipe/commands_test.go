package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scan", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"accepted":true,"record":{"id":"r1","payload":"ABC123","observed_at":"2025-06-01T10:00:00Z"}}`))
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"r1","payload":"ABC123","observed_at":"2025-06-01T10:00:00Z"}]`))
	})
	mux.HandleFunc("GET /api/export", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("2025-06-01 10:00:00 UTC\nABC123\n"))
	})
	mux.HandleFunc("POST /api/clear", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"state":"idle","records":1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteCommands(t *testing.T) {
	srv := fakeDaemon(t)
	api := APIFlags{APIUrl: srv.URL + "/api"}
	c := command{}

	if err := c.Scan(ScanFlags{Payload: "ABC123", APIFlags: api}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := c.History(api); err != nil {
		t.Fatalf("history: %v", err)
	}
	if err := c.Export(api); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := c.Clear(api); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := c.Status(api); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestRemoteCommandsSurfaceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	api := APIFlags{APIUrl: srv.URL + "/api"}
	c := command{}
	if err := c.Scan(ScanFlags{Payload: "x", APIFlags: api}); err == nil {
		t.Fatalf("expected scan error")
	}
	if err := c.History(api); err == nil {
		t.Fatalf("expected history error")
	}
}

func TestBuildRootSubcommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{
		"scan": false, "history": false, "export": false,
		"clear": false, "status": false, "serve": false,
	}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestServeRequiresConfig(t *testing.T) {
	if err := runServeCommand(&ServeFlags{}, nil); err == nil {
		t.Fatalf("expected error without config path")
	}
}

func TestServeRejectsMissingConfigFile(t *testing.T) {
	if err := runServeCommand(&ServeFlags{ConfigPath: "/nonexistent/scanpipe.toml"}, nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
