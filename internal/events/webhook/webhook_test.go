package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/trendbot/internal/events"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWebhook_ImplementsSink(t *testing.T) {
	var _ events.Sink = (*Webhook)(nil)
}

func TestWebhook_New_RequiresURL(t *testing.T) {
	if _, err := New("", nil, nil); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Send(t *testing.T) {
	var receivedPayload struct {
		Type  string       `json:"type"`
		Event events.Event `json:"event"`
	}
	var gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w, err := New(server.URL, map[string]string{"X-Token": "secret"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ev := events.Event{
		Kind:     events.KindSold,
		Symbol:   "AAPL",
		Quantity: 2,
		Price:    110,
		PnL:      20,
		Balance:  1020,
		Time:     time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
	}
	if err := w.Send(context.Background(), ev); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if receivedPayload.Type != "ledger_event" {
		t.Errorf("expected type ledger_event, got %s", receivedPayload.Type)
	}
	if receivedPayload.Event.Kind != events.KindSold || receivedPayload.Event.PnL != 20 {
		t.Errorf("unexpected event payload: %+v", receivedPayload.Event)
	}
	if gotHeader != "secret" {
		t.Errorf("expected custom header, got %q", gotHeader)
	}
}

func TestWebhook_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w, _ := New(server.URL, nil, nil)
	if err := w.Send(context.Background(), events.Event{Kind: events.KindBought}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestWebhook_Emit_LogsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	var buf bytes.Buffer
	w, _ := New(server.URL, nil, bufferLogger(&buf))
	w.Emit(events.Event{Kind: events.KindBought, Symbol: "MSFT"})
	w.Close()

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log: %v, log: %s", err, buf.String())
	}
	if logEntry["msg"] != "webhook delivery failed" {
		t.Errorf("unexpected log message: %v", logEntry["msg"])
	}
	if logEntry["symbol"] != "MSFT" {
		t.Errorf("expected symbol MSFT, got %v", logEntry["symbol"])
	}
}

func bufferLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(buf)), zapcore.InfoLevel))
}

func TestWebhook_Emit_DoesNotWaitForSlowEndpoint(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	var buf bytes.Buffer
	w, err := New(server.URL, nil, bufferLogger(&buf), WithQueueSize(1))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		w.Emit(events.Event{Kind: events.KindBought, Symbol: "AAPL"})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Emit blocked for %v", elapsed)
	}
	if !strings.Contains(buf.String(), "webhook queue full, event dropped") {
		t.Errorf("expected a dropped event to be logged, log: %s", buf.String())
	}
}

func TestWebhook_Close_DeliveryTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	var buf bytes.Buffer
	w, err := New(server.URL, nil, bufferLogger(&buf), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	w.Emit(events.Event{Kind: events.KindSold, Symbol: "MSFT"})
	w.Close()
	w.Emit(events.Event{Kind: events.KindSold, Symbol: "IGNORED"})

	out := buf.String()
	if !strings.Contains(out, "webhook delivery failed") {
		t.Errorf("expected delivery timeout to be logged, log: %s", out)
	}
	if strings.Contains(out, "IGNORED") {
		t.Errorf("events after Close must be ignored, log: %s", out)
	}
}
