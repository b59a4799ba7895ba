package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
)

func TestMasterOccupiedPortFailsWithoutForking(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("pre-bind listener: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := Config{HTTPPort: port, WorkerCount: 2}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err = NewMaster(cfg, logger).Run(context.Background())
	if err == nil {
		t.Fatal("occupied port must fail the master")
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("bind port %d", port)) {
		t.Fatalf("expected bind failure for port %d, got %v", port, err)
	}
}
