package http

import (
	"net/http/httptest"
	"testing"
)

func TestStatusRecorderForwardsFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: rec}

	recorder.Flush()
	if !rec.Flushed {
		t.Fatal("flush must reach the underlying writer")
	}
}

func TestStatusRecorderDefaultsTo200OnWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: rec}

	if _, err := recorder.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if recorder.statusCode != 200 {
		t.Fatalf("implicit status must record 200, got %d", recorder.statusCode)
	}
	if recorder.bytes != 2 {
		t.Fatalf("expected 2 bytes recorded, got %d", recorder.bytes)
	}
}
