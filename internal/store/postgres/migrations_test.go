package postgres

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestMigrationSource(t *testing.T) {
	src, err := MigrationSource()
	if err != nil {
		t.Fatalf("MigrationSource failed: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if first != 1 {
		t.Errorf("got first version %d, want 1", first)
	}

	up, _, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("ReadUp failed: %v", err)
	}
	defer up.Close()
	body, err := io.ReadAll(up)
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	for _, table := range []string{"schools", "flights", "weather_checks", "reschedule_requests"} {
		if !strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("up migration does not create %s", table)
		}
	}

	down, _, err := src.ReadDown(first)
	if err != nil {
		t.Fatalf("ReadDown failed: %v", err)
	}
	down.Close()

	if _, err := src.Next(first); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got next version err %v, want os.ErrNotExist", err)
	}
}

func TestMigrateLogger(t *testing.T) {
	var buf bytes.Buffer
	l := migrateLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Printf("Start buffering %v/u %s\n", 1, "init")

	if l.Verbose() {
		t.Error("expected Verbose to be false")
	}
	if !strings.Contains(buf.String(), `msg="Start buffering 1/u init"`) {
		t.Errorf("got log %q", buf.String())
	}
}
