package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/genlink-bridge/internal/infrastructure/config"
)

// These tests run without a broker. Broker round trips live in
// integration_test.go behind the integration build tag.

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "genlink-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "genlink",
	}
}

// disconnectedClient returns a Client that never dialled a broker.
func disconnectedClient() *Client {
	cfg := testConfig()
	return &Client{
		cfg:           cfg,
		topics:        NewTopics(cfg.TopicPrefix, ""),
		subscriptions: make(map[string]subscription),
	}
}

// recordingLogger captures Warn and Error calls.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Info(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// =============================================================================
// Options
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "bridge", Password: "pw"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "genlink-test" {
		t.Errorf("ClientID = %q, want genlink-test", opts.ClientID)
	}
	if opts.Username != "bridge" || opts.Password != "pw" {
		t.Errorf("credentials = %q/%q, want bridge/pw", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect and clean session")
	}
	if opts.Order {
		t.Error("expected unordered delivery so handlers may publish")
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS should not be configured when disabled")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("expected TLS 1.2 minimum")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, NewTopics("genlink", ""))

	if !opts.WillEnabled {
		t.Fatal("LWT not enabled")
	}
	if opts.WillTopic != "genlink/bridge/status" {
		t.Errorf("WillTopic = %q, want genlink/bridge/status", opts.WillTopic)
	}
	if string(opts.WillPayload) != PayloadOffline {
		t.Errorf("WillPayload = %q, want %q", opts.WillPayload, PayloadOffline)
	}
	if !opts.WillRetained {
		t.Error("LWT should be retained")
	}
}

// =============================================================================
// Validation and disconnected state
// =============================================================================

func TestIsConnected_InitialState(t *testing.T) {
	c := disconnectedClient()
	if c.IsConnected() {
		t.Error("IsConnected() = true for client that never connected")
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	c := disconnectedClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := disconnectedClient()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "genlink/x/state", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "genlink/x/state", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "genlink/x/state", []byte("x"), 1, ErrNotConnected},
		{"disconnected nil payload", "genlink/x/state", nil, 0, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := c.PublishString("genlink/x/state", "x", 1, true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishString() error = %v, want ErrNotConnected", err)
	}
	if err := c.PublishRetained("genlink/x/state", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishRetained() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := disconnectedClient()
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("genlink/+/+/set", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("genlink/+/+/set", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Subscribe("genlink/+/+/set", 1, handler); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
	if c.SubscriptionCount() != 0 || c.HasSubscription("genlink/+/+/set") {
		t.Error("failed subscribe should not be tracked")
	}

	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Unsubscribe("genlink/+/+/set"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe(disconnected) error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Handler wrapping
// =============================================================================

func TestWrapHandler_PassesMessage(t *testing.T) {
	c := disconnectedClient()

	var gotTopic, gotPayload string
	wrapped := c.wrapHandler(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, string(payload)
		return nil
	})
	wrapped(nil, fakeMessage{topic: "genlink/abc/outlet/set", payload: []byte("ON")})

	if gotTopic != "genlink/abc/outlet/set" || gotPayload != "ON" {
		t.Errorf("handler got %q %q", gotTopic, gotPayload)
	}
}

func TestWrapHandler_LogsError(t *testing.T) {
	c := disconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		return errors.New("read-only")
	})
	wrapped(nil, fakeMessage{topic: "genlink/abc/outlet/set"})

	if len(logger.warns) != 1 {
		t.Errorf("expected 1 warning, got %d", len(logger.warns))
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	c := disconnectedClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})
	wrapped(nil, fakeMessage{topic: "genlink/abc/outlet/set"})

	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("expected panic to be logged, got %v", logger.errors)
	}
}

func TestWrapHandler_NoLogger(t *testing.T) {
	c := disconnectedClient()
	wrapped := c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})

	// Must not propagate the panic.
	wrapped(nil, fakeMessage{topic: "t"})
}

func TestCallbacks(t *testing.T) {
	c := disconnectedClient()

	var disconnectErr error
	c.SetOnDisconnect(func(err error) { disconnectErr = err })

	c.connected = true
	c.handleDisconnect(errors.New("network down"))

	if c.connected {
		t.Error("handleDisconnect should clear connected state")
	}
	if disconnectErr == nil || disconnectErr.Error() != "network down" {
		t.Errorf("onDisconnect got %v", disconnectErr)
	}
}
