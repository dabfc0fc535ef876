package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.MatchCreated()
	r.MatchEnded("finished")
	r.RoundResolved("shooting", "save")
	r.Command("play", "ok")
	r.RateLimited()
	r.PromptWait(1, "answered")
}

// gather суммирует значения счетчиков и датчиков по имени метрики
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("не удалось собрать метрики: %v", err)
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				out[mf.GetName()] += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				out[mf.GetName()] += g.GetValue()
			}
		}
	}
	return out
}

func TestRecorder_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.MatchCreated()
	r.MatchCreated()
	r.MatchEnded("cancelled")
	r.RoundResolved("shooting", "save")
	r.RoundResolved("shooting", "save")
	r.Command("play", "ok")

	got := gather(t, reg)
	want := map[string]float64{
		"hand_hockey_matches_created_total": 2,
		"hand_hockey_live_matches":          1,
		"hand_hockey_matches_ended_total":   1,
		"hand_hockey_rounds_total":          2,
		"hand_hockey_commands_total":        1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Fatalf("%s = %.0f, ожидали %.0f", name, got[name], v)
		}
	}
}
