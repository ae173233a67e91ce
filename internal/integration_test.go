package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-iot-backend/internal/api"
	"hospital-iot-backend/internal/checkin"
	"hospital-iot-backend/internal/model"
	"hospital-iot-backend/internal/replay"
	"hospital-iot-backend/internal/store"
	"hospital-iot-backend/internal/testdb"
	"hospital-iot-backend/internal/ticket"
)

// newServer starts the full HTTP stack on a fresh SQLite database.
func newServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewGormStore(testdb.Open(t))
	loc := time.FixedZone("WIB", 7*3600)
	engine := ticket.NewEngine(s, loc)
	svc := checkin.NewService(s, engine, checkin.Options{
		Location:   loc,
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
	router := api.NewRouter(api.NewHandler(s, svc, engine, loc), api.RouterOptions{
		CacheTTL: 5 * time.Second,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, s
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// TestCheckinLifecycle walks one device through failure, escalation,
// recovery and a new failure, checking the API view after each step.
func TestCheckinLifecycle(t *testing.T) {
	server, _ := newServer(t)
	client := replay.NewClient(server.URL+"/api/v1/checkin", time.Second, "")
	ctx := context.Background()
	deviceID := "BED-MONITOR-101-ICU"

	var t1 string
	t.Run("Cycle 1: error opens a ticket", func(t *testing.T) {
		resp, err := client.Send(ctx, replay.Event{DeviceID: deviceID, Status: "error", Message: "Battery Low"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.TicketCreated)
		assert.Contains(t, resp.LocalTime, "WIB")
		t1 = resp.TicketCreated

		var active []model.Ticket
		getJSON(t, server.URL+"/api/v1/tickets", &active)
		require.Len(t, active, 1)
		assert.Equal(t, model.IssueTypeError, active[0].IssueType)
	})

	t.Run("Cycle 2: offline updates the same ticket", func(t *testing.T) {
		resp, err := client.Send(ctx, replay.Event{DeviceID: deviceID, Status: "offline", Message: "Connection Lost"})
		require.NoError(t, err)
		assert.Equal(t, t1, resp.TicketCreated)

		var got model.Ticket
		getJSON(t, server.URL+"/api/v1/tickets/"+t1, &got)
		assert.Equal(t, "Connection Lost", got.Message)
		assert.Equal(t, model.IssueTypeError, got.IssueType, "issue type is fixed at creation")
		assert.True(t, got.IsActive)
	})

	t.Run("Cycle 3: online resolves it", func(t *testing.T) {
		resp, err := client.Send(ctx, replay.Event{DeviceID: deviceID, Status: "online", Message: "System OK"})
		require.NoError(t, err)
		assert.Empty(t, resp.TicketCreated)

		var got model.Ticket
		getJSON(t, server.URL+"/api/v1/tickets/"+t1, &got)
		assert.False(t, got.IsActive)
		assert.Equal(t, model.TicketStatusResolved, got.Status)
		assert.NotNil(t, got.ResolvedAt)

		var active []model.Ticket
		getJSON(t, server.URL+"/api/v1/tickets", &active)
		assert.Empty(t, active)
	})

	t.Run("Cycle 4: a new failure opens a new ticket", func(t *testing.T) {
		resp, err := client.Send(ctx, replay.Event{DeviceID: deviceID, Status: "error", Message: "Battery Low"})
		require.NoError(t, err)
		assert.NotEqual(t, t1, resp.TicketCreated)

		var all []model.Ticket
		getJSON(t, server.URL+"/api/v1/tickets?active=false", &all)
		assert.Len(t, all, 2)

		var history []model.HistoryRecord
		getJSON(t, server.URL+"/api/v1/devices/"+deviceID+"/history", &history)
		require.Len(t, history, 4)
		assert.Equal(t, "error", history[0].Status)
		assert.Equal(t, "error", history[3].Status)
	})
}

// TestReplayDemoScript replays the bundled ward script in parallel and
// checks the resulting ticket state.
func TestReplayDemoScript(t *testing.T) {
	server, s := newServer(t)

	script, err := replay.LoadScript("../scripts/ward-demo.yaml")
	require.NoError(t, err)
	script.IntervalMs = 0

	stats := replay.Run(context.Background(), script, replay.NewClient(server.URL+"/api/v1/checkin", time.Second, ""), 4)
	assert.Equal(t, int64(len(script.Events)), stats.Sent)
	assert.Zero(t, stats.Failed)

	ctx := context.Background()
	all, err := s.ListTickets(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := s.ListTickets(ctx, true)
	require.NoError(t, err)
	activeDevices := map[string]int{}
	for _, tk := range active {
		activeDevices[tk.DeviceID]++
	}
	assert.Equal(t, map[string]int{"BED-MONITOR-101-ICU": 1, "INFUSION-PUMP-201-A": 1}, activeDevices)

	var summary struct {
		TotalDevices  int   `json:"total_devices"`
		ActiveTickets int64 `json:"active_tickets"`
	}
	getJSON(t, server.URL+"/api/v1/summary", &summary)
	assert.Equal(t, 4, summary.TotalDevices)
	assert.Equal(t, int64(2), summary.ActiveTickets)
}

// TestConcurrentReplayKeepsOneActiveTicket hammers a handful of devices
// with alternating failures from many workers.
func TestConcurrentReplayKeepsOneActiveTicket(t *testing.T) {
	server, s := newServer(t)

	devices := []string{"VENTILATOR-301-ICU", "VENTILATOR-302-ICU", "INFUSION-PUMP-203-B"}
	script := &replay.Script{}
	for i := 0; i < 10; i++ {
		for _, d := range devices {
			status := "error"
			if i%2 == 1 {
				status = "offline"
			}
			script.Events = append(script.Events, replay.Event{DeviceID: d, Status: status})
		}
	}

	stats := replay.Run(context.Background(), script, replay.NewClient(server.URL+"/api/v1/checkin", 5*time.Second, ""), 8)
	assert.Equal(t, int64(30), stats.Sent)

	for _, d := range devices {
		active, err := s.ActiveTickets(context.Background(), d)
		require.NoError(t, err)
		assert.Len(t, active, 1, d)
	}
	all, err := s.ListTickets(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, len(devices))
}
