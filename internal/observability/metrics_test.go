package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/Tickets/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/Tickets/:id", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/Tickets/:id", "GET", "NOT_FOUND")
	m.RecordNotification("ticket_assigned", true)
	m.RecordNotification("ticket_assigned", false)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/Tickets/:id|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMs["/api/Tickets/:id|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/Tickets/:id|GET|NOT_FOUND"])
	assert.Equal(t, int64(1), snap.Notifications["ticket_assigned|sent"])
	assert.Equal(t, int64(1), snap.Notifications["ticket_assigned|failed"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordNotification("x", true)
	assert.Empty(t, m.Snapshot().Requests)
}
