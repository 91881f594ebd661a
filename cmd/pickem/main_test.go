package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"strings"
	"testing"

	"github.com/abrezinsky/pickem/internal/config"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
)

func TestParseMintSpec(t *testing.T) {
	tests := []struct {
		spec    string
		uid     string
		role    string
		wantErr bool
	}{
		{"ops", "ops", models.RoleAdmin, false},
		{"ops:editor", "ops", models.RoleEditor, false},
		{"alice:user", "alice", models.RoleUser, false},
		{"ops:", "ops", models.RoleAdmin, false},
		{":admin", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			id, err := parseMintSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.UID != tt.uid || id.Role != tt.role {
				t.Errorf("got %+v, want uid=%s role=%s", id, tt.uid, tt.role)
			}
		})
	}
}

func TestApplyFlags_OnlyExplicit(t *testing.T) {
	fs := flag.NewFlagSet("pickem", flag.ContinueOnError)
	fs.Int("port", 8081, "")
	fs.String("db", "pickem.db", "")
	fs.String("backend", config.BackendSQLite, "")
	fs.String("loglevel", "info", "")
	if err := fs.Parse([]string{"-port", "9000", "-backend", "firestore"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := config.Default()
	cfg.Store.SQLitePath = "from-yaml.db"
	cfg.Log.Level = "debug"
	applyFlags(cfg, fs)

	if cfg.Server.Port != 9000 || cfg.Store.Backend != config.BackendFirestore {
		t.Errorf("expected explicit flags applied, got %+v", cfg)
	}
	if cfg.Store.SQLitePath != "from-yaml.db" || cfg.Log.Level != "debug" {
		t.Errorf("expected unset flags to leave config alone, got %+v", cfg)
	}
}

func TestCycleLogLevel(t *testing.T) {
	log := logger.NewWithLevel(slog.LevelDebug)
	for _, want := range []string{"info", "warn", "error", "debug"} {
		if got := cycleLogLevel(log); got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestShortcuts(t *testing.T) {
	var opened string
	rescored := make(chan struct{}, 1)
	quit := 0
	s := &shortcuts{
		adminURL: "http://10.0.0.2:8081/api/admin/rounds",
		log:      logger.NewNop(),
		rescore:  func() { rescored <- struct{}{} },
		quit:     func() { quit++ },
		open: func(u string) error {
			opened = u
			return errors.New("no browser")
		},
	}

	readKeys(context.Background(), strings.NewReader("aHrxq?"), s)

	if opened != s.adminURL {
		t.Errorf("expected admin URL opened, got %q", opened)
	}
	if !s.log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging toggled on")
	}
	<-rescored
	if quit != 1 {
		t.Errorf("expected one quit, got %d", quit)
	}
}
