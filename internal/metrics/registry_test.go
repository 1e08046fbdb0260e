package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	m.CommandExecutions.WithLabelValues("plan", "true").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"waveplan_command_executions_total", "go_goroutines"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.ActiveSessions.Set(2)

	w := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want %v", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "waveplan_active_sessions 2") {
		t.Errorf("metrics output missing active sessions gauge:\n%s", w.Body.String())
	}
}

func TestMultipleRegistries(t *testing.T) {
	reg1, m1 := NewRegistry()
	reg2, _ := NewRegistry()

	m1.BlockedUnits.Add(3)

	w1 := httptest.NewRecorder()
	HandlerFor(reg1).ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	w2 := httptest.NewRecorder()
	HandlerFor(reg2).ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(w1.Body.String(), "waveplan_blocked_units_total 3") {
		t.Error("first registry should report 3 blocked units")
	}
	if !strings.Contains(w2.Body.String(), "waveplan_blocked_units_total 0") {
		t.Error("second registry should be unaffected")
	}
}
