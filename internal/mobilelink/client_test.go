package mobilelink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

const v1Body = `[
	{
		"apparatusId": 123456,
		"name": "Standby",
		"modelNumber": "G-22",
		"serialNumber": "SN1",
		"firmwareVersion": "1.24",
		"isConnected": true,
		"signalStrength": -45,
		"batteryVoltage": "Good",
		"status": {"green": true, "yellow": false, "red": false, "blue": true}
	}
]`

const v2Body = `[
	{
		"apparatusId": "98765",
		"name": "Cabin",
		"serialNumber": "SN2",
		"isConnected": false,
		"signalStrength": "70%",
		"apparatusStatus": 3,
		"unknownField": {"nested": true}
	}
]`

// vendorServer fakes the token and listing endpoints.
type vendorServer struct {
	*httptest.Server

	tokenCalls atomic.Int32
	listCalls  atomic.Int32

	listStatus atomic.Int32
	listBody   string
	lastPath   atomic.Value
}

func newVendorServer(t *testing.T, body string) *vendorServer {
	t.Helper()

	vs := &vendorServer{listBody: body}
	vs.listStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		n := vs.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "password" || r.Form.Get("username") != "owner" || r.Form.Get("password") != "secret" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", n),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	listHandler := func(w http.ResponseWriter, r *http.Request) {
		vs.listCalls.Add(1)
		vs.lastPath.Store(r.URL.Path)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		status := int(vs.listStatus.Load())
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(vs.listBody))
	}
	mux.HandleFunc("/api/v1/apparatus/list", listHandler)
	mux.HandleFunc("/api/v2/apparatus/list", listHandler)

	vs.Server = httptest.NewServer(mux)
	t.Cleanup(vs.Close)
	return vs
}

func (vs *vendorServer) config(version string) Config {
	return Config{
		BaseURL:    vs.URL,
		TokenURL:   vs.URL + "/oauth/token",
		ClientID:   "genlink",
		Username:   "owner",
		Password:   "secret",
		APIVersion: version,
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	valid := Config{
		BaseURL:    "https://api.example.com",
		TokenURL:   "https://api.example.com/oauth/token",
		Username:   "owner",
		Password:   "secret",
		APIVersion: "v2",
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad version", func(c *Config) { c.APIVersion = "v3" }},
		{"empty version", func(c *Config) { c.APIVersion = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "/api" }},
		{"missing token url", func(c *Config) { c.TokenURL = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			_, err := NewClient(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	c, err := NewClient(valid)
	require.NoError(t, err)
	assert.Equal(t, generator.KindCode, c.Kind())
	assert.Equal(t, "https://api.example.com/api/v2/apparatus/list", c.listURL)
}

func TestFetchDevices_V1(t *testing.T) {
	vs := newVendorServer(t, v1Body)
	c, err := NewClient(vs.config("v1"))
	require.NoError(t, err)

	devices, err := c.FetchDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, generator.KindFlags, d.Kind)
	assert.Equal(t, "123456", d.VendorID)
	assert.Equal(t, "Standby", d.Name)
	assert.Equal(t, "G-22", d.Model)
	assert.Equal(t, "1.24", d.FirmwareVersion)
	assert.True(t, d.Connected)
	assert.Equal(t, "-45", d.SignalStrength)
	assert.Equal(t, "Good", d.BatteryVoltage)
	require.NotNil(t, d.Flags)
	assert.Nil(t, d.Code)
	assert.True(t, d.Flags.Green)
	assert.True(t, d.Flags.Blue)
	assert.False(t, d.Flags.Red)

	assert.Equal(t, "/api/v1/apparatus/list", vs.lastPath.Load())
	assert.Equal(t, 2, generator.Translate(d).LinkQuality)
}

func TestFetchDevices_V2(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	c, err := NewClient(vs.config("V2"))
	require.NoError(t, err)

	devices, err := c.FetchDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	d := devices[0]
	assert.Equal(t, generator.KindCode, d.Kind)
	assert.Equal(t, "98765", d.VendorID)
	assert.False(t, d.Connected)
	require.NotNil(t, d.Code)
	assert.Nil(t, d.Flags)
	assert.Equal(t, 3, d.Code.Code)

	attrs := generator.Translate(d)
	assert.Equal(t, generator.StatusExercising, attrs.Status)
	assert.Equal(t, generator.NotCharging, attrs.Charging)
}

func TestFetchDevices_TokenReused(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	c, err := NewClient(vs.config("v2"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.FetchDevices(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), vs.tokenCalls.Load())
	assert.Equal(t, int32(3), vs.listCalls.Load())
}

func TestFetchDevices_RejectedTokenTriggersNewGrant(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	c, err := NewClient(vs.config("v2"))
	require.NoError(t, err)

	vs.listStatus.Store(http.StatusUnauthorized)
	_, err = c.FetchDevices(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)

	vs.listStatus.Store(http.StatusOK)
	_, err = c.FetchDevices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), vs.tokenCalls.Load())
}

func TestFetchDevices_GrantRejected(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	cfg := vs.config("v2")
	cfg.Password = "wrong"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.FetchDevices(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, int32(0), vs.listCalls.Load())
}

func TestFetchDevices_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, v2Body, ErrUnexpectedStatus},
		{"forbidden", http.StatusForbidden, v2Body, ErrAuthFailed},
		{"not json", http.StatusOK, "<html>", ErrDecodeFailed},
		{"object not array", http.StatusOK, `{"apparatusId": 1}`, ErrDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := newVendorServer(t, tt.body)
			vs.listStatus.Store(int32(tt.status))
			c, err := NewClient(vs.config("v2"))
			require.NoError(t, err)

			_, err = c.FetchDevices(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchDevices_SkipsUndecodableItems(t *testing.T) {
	body := `[
		{"apparatusId": 1, "name": "First", "apparatusStatus": 1},
		{"name": "no id"},
		{"apparatusId": 2, "apparatusStatus": "running"},
		42,
		null,
		{"apparatusId": "3", "name": "Third", "apparatusStatus": 2}
	]`
	vs := newVendorServer(t, body)
	c, err := NewClient(vs.config("v2"))
	require.NoError(t, err)

	devices, err := c.FetchDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "1", devices[0].VendorID)
	assert.Equal(t, "3", devices[1].VendorID)
	assert.Equal(t, generator.StatusRunning, generator.StatusForCode(devices[1].Code.Code))
}

func TestFetchDevices_AllItemsUndecodable(t *testing.T) {
	vs := newVendorServer(t, `[{"name": "x"}]`)
	c, err := NewClient(vs.config("v2"))
	require.NoError(t, err)

	devices, err := c.FetchDevices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestFetchDevices_NoContent(t *testing.T) {
	vs := newVendorServer(t, "")
	vs.listStatus.Store(http.StatusNoContent)
	c, err := NewClient(vs.config("v1"))
	require.NoError(t, err)

	devices, err := c.FetchDevices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestFetchDevices_ServerUnreachable(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	cfg := vs.config("v2")
	vs.Close()

	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.FetchDevices(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchDevices_ContextCancelled(t *testing.T) {
	vs := newVendorServer(t, v2Body)
	c, err := NewClient(vs.config("v2"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.FetchDevices(ctx)
	require.ErrorIs(t, err, ErrFetchFailed)
}
