// ABOUTME: Tests for server lifecycle and statistics
// ABOUTME: Starts on an ephemeral port, serves a request and stops cleanly
package server

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedetect/voicedetect-go/pkg/analysis"
)

func TestServerStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	s := newTestServer(t, cfg, newFakeClassifier())

	errChan := make(chan error, 1)
	go func() { errChan <- s.Start() }()

	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not bind")
	}

	tcp, ok := s.Addr().(*net.TCPAddr)
	require.True(t, ok)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", tcp.Port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.Stop()
	s.Stop() // idempotent

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, s.shuttingDown())
}

func TestServerDefaultName(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Name = ""
	newTestServer(t, cfg, newFakeClassifier())
	assert.Contains(t, cfg.Server.Name, "-voicedetect")
}

func TestStats(t *testing.T) {
	st := NewStats()
	for i := 0; i < 12; i++ {
		label := analysis.LabelAI
		if i%3 == 0 {
			label = analysis.LabelHuman
		}
		st.Record(Detection{Classification: label, Confidence: float64(i)})
	}

	snap := st.Snapshot()
	assert.Equal(t, 12, snap.Total)
	assert.Equal(t, 4, snap.Counts[analysis.LabelHuman])
	assert.Equal(t, 8, snap.Counts[analysis.LabelAI])
	require.Len(t, snap.Recent, recentDetections)
	assert.Equal(t, 11.0, snap.Recent[0].Confidence)
	assert.Equal(t, 2.0, snap.Recent[len(snap.Recent)-1].Confidence)

	// Snapshots are copies
	snap.Counts[analysis.LabelAI] = 0
	assert.Equal(t, 8, st.Snapshot().Counts[analysis.LabelAI])
}

func TestTUIModel(t *testing.T) {
	tui := NewServerTUI("studio", 8000, "local")
	m := tui.model

	next, _ := m.Update(statusMsg(ServerStatus{
		Name:        "studio",
		Port:        8000,
		Mode:        "local",
		Connections: 2,
		Stats: StatsSnapshot{
			Total:  3,
			Counts: map[string]int{analysis.LabelAI: 2, analysis.LabelHuman: 1},
			Recent: []Detection{{Time: time.Now(), Transport: transportHTTP, Classification: analysis.LabelAI, Confidence: 0.85}},
		},
	}))
	view := next.View()
	assert.Contains(t, view, "Voice Detect Server")
	assert.Contains(t, view, "Detections (3)")
	assert.Contains(t, view, analysis.LabelUncertain)
	assert.Contains(t, view, "0.85")

	quit, _ := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Contains(t, quit.View(), "Shutting down")
	select {
	case <-tui.QuitChan():
	default:
		t.Fatal("expected quit signal")
	}
}
