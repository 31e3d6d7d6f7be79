package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/service"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/simulator"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/telemetry"
)

type fakeHistory struct {
	motorID string
	limit   int
	items   []domain.SnapshotRecord
	err     error
}

func (f *fakeHistory) ListSnapshots(_ context.Context, motorID string, limit int) ([]domain.SnapshotRecord, error) {
	f.motorID, f.limit = motorID, limit
	return f.items, f.err
}

func newApp(t *testing.T, history HistoryStore) (*fiber.App, *simulator.Simulator, *telemetry.Hub) {
	t.Helper()
	hub := telemetry.NewHub()
	cfg := simulator.DefaultConfig()
	cfg.Publisher = hub
	sim := simulator.New(cfg)

	app := fiber.New()
	Register(app, Deps{
		Sim:         sim,
		Hub:         hub,
		Maintenance: service.NewMaintenanceService(time.Now()),
		History:     history,
	})
	return app, sim, hub
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app, _, _ := newApp(t, nil)
	code, body := do(t, app, "GET", "/health", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", string(body))
}

func TestSnapshotViews(t *testing.T) {
	app, _, _ := newApp(t, nil)

	code, body := do(t, app, "GET", "/motor", "")
	require.Equal(t, 200, code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "motor-001", snap.MotorID)
	assert.Equal(t, domain.MotorIdle, snap.MotorStatus)
	assert.Len(t, snap.SensorData.Vibration, simulator.DefaultWindowSize)

	code, body = do(t, app, "GET", "/motor/faults", "")
	require.Equal(t, 200, code)
	var faults domain.FaultData
	require.NoError(t, json.Unmarshal(body, &faults))
	assert.Equal(t, domain.FaultWarning, faults.Status)
	assert.Len(t, faults.Faults, 4)

	code, body = do(t, app, "GET", "/motor/data", "")
	require.Equal(t, 200, code)
	var data domain.MotorData
	require.NoError(t, json.Unmarshal(body, &data))
	assert.Equal(t, 1500.0, data.Speed)

	code, body = do(t, app, "GET", "/motor/recommendations", "")
	require.Equal(t, 200, code)
	var recs []domain.Recommendation
	require.NoError(t, json.Unmarshal(body, &recs))
	assert.NotEmpty(t, recs)

	code, body = do(t, app, "GET", "/motor/status", "")
	require.Equal(t, 200, code)
	assert.JSONEq(t, `{"status":"idle"}`, string(body))

	code, body = do(t, app, "GET", "/motor/sensors/summary", "")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), `"channel":"vibration"`)

	code, body = do(t, app, "GET", "/motor/forecast", "")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), `"next_service_date"`)
}

func TestSetStatus(t *testing.T) {
	app, sim, hub := newApp(t, nil)
	events, cancel := hub.Subscribe(4)
	defer cancel()

	code, body := do(t, app, "PUT", "/motor/status", `{"status":"running"}`)
	require.Equal(t, 200, code)
	assert.JSONEq(t, `{"status":"running"}`, string(body))
	assert.Equal(t, domain.MotorRunning, sim.Status())

	select {
	case snap := <-events:
		assert.Equal(t, domain.MotorRunning, snap.MotorStatus)
	case <-time.After(time.Second):
		t.Fatal("status change was not published")
	}

	code, _ = do(t, app, "PUT", "/motor/status", `{"status":"spinning"}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, domain.MotorRunning, sim.Status())

	code, _ = do(t, app, "PUT", "/motor/status", `{"status":"fault"}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, domain.MotorFault, sim.Status())
}

func TestControls(t *testing.T) {
	app, sim, _ := newApp(t, nil)

	code, _ := do(t, app, "POST", "/motor/reset", "")
	assert.Equal(t, 409, code)

	code, _ = do(t, app, "POST", "/motor/start", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, domain.MotorRunning, sim.Status())

	code, _ = do(t, app, "POST", "/motor/stop", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, domain.MotorIdle, sim.Status())

	code, _ = do(t, app, "POST", "/motor/emergency-stop", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, domain.MotorFault, sim.Status())

	code, body := do(t, app, "POST", "/motor/start", "")
	assert.Equal(t, 409, code)
	assert.Contains(t, string(body), "reset")

	code, _ = do(t, app, "POST", "/motor/reset", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, domain.MotorIdle, sim.Status())
}

func TestHistory(t *testing.T) {
	app, _, _ := newApp(t, nil)
	code, _ := do(t, app, "GET", "/motor/history", "")
	assert.Equal(t, 503, code)

	store := &fakeHistory{items: []domain.SnapshotRecord{{ID: 3, MotorID: "motor-001", Sequence: 9}}}
	app, _, _ = newApp(t, store)

	code, body := do(t, app, "GET", "/motor/history?limit=5", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "motor-001", store.motorID)
	assert.Equal(t, 5, store.limit)
	assert.Contains(t, string(body), `"sequence":9`)

	code, _ = do(t, app, "GET", "/motor/history?limit=0", "")
	assert.Equal(t, 400, code)

	store.err = errors.New("db down")
	code, _ = do(t, app, "GET", "/motor/history", "")
	assert.Equal(t, 500, code)
	assert.Equal(t, defaultHistoryLimit, store.limit)
}

func TestMissingSimulator(t *testing.T) {
	app := fiber.New()
	Register(app, Deps{Hub: telemetry.NewHub()})
	code, _ := do(t, app, "GET", "/motor", "")
	assert.Equal(t, 503, code)
}

func TestStreamEndsWhenHubCloses(t *testing.T) {
	app, sim, hub := newApp(t, nil)
	hub.Close()

	code, body := do(t, app, "GET", "/motor/stream", "")
	require.Equal(t, 200, code)
	assert.Contains(t, string(body), "event: snapshot\n")
	assert.Contains(t, string(body), `"motor_id":"`+sim.MotorID()+`"`)
}

func TestStreamWithoutHub(t *testing.T) {
	app := fiber.New()
	Register(app, Deps{Sim: simulator.New(simulator.DefaultConfig())})

	code, body := do(t, app, "GET", "/motor/stream", "")
	assert.Equal(t, 503, code)
	assert.Contains(t, string(body), "telemetry hub")
}
