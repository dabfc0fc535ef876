package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder - метрики матчей. Нулевой *Recorder безопасен и ничего не пишет.
type Recorder struct {
	matchesCreated prometheus.Counter
	matchesEnded   *prometheus.CounterVec
	liveMatches    prometheus.Gauge
	rounds         *prometheus.CounterVec
	commands       *prometheus.CounterVec
	rateLimited    prometheus.Counter
	promptWait     *prometheus.HistogramVec
}

// New регистрирует метрики в reg
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hand_hockey_matches_created_total",
			Help: "Созданные матчи",
		}),
		matchesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hand_hockey_matches_ended_total",
			Help: "Матчи, перешедшие в конечное состояние",
		}, []string{"state"}),
		liveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hand_hockey_live_matches",
			Help: "Живые матчи в реестре",
		}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hand_hockey_rounds_total",
			Help: "Разыгранные раунды по исходу",
		}, []string{"scenario", "category"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hand_hockey_commands_total",
			Help: "Команды бота",
		}, []string{"command", "result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hand_hockey_commands_rate_limited_total",
			Help: "Команды, отклоненные лимитером",
		}),
		promptWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hand_hockey_prompt_wait_seconds",
			Help:    "Время ожидания ответа игрока",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 25},
		}, []string{"result"}),
	}
	reg.MustRegister(r.matchesCreated, r.matchesEnded, r.liveMatches, r.rounds, r.commands, r.rateLimited, r.promptWait)
	return r
}

func (r *Recorder) MatchCreated() {
	if r == nil {
		return
	}
	r.matchesCreated.Inc()
	r.liveMatches.Inc()
}

func (r *Recorder) MatchEnded(state string) {
	if r == nil {
		return
	}
	r.matchesEnded.WithLabelValues(state).Inc()
	r.liveMatches.Dec()
}

func (r *Recorder) RoundResolved(scenario, category string) {
	if r == nil {
		return
	}
	r.rounds.WithLabelValues(scenario, category).Inc()
}

// Command учитывает команду бота; result - ok, error или denied
func (r *Recorder) Command(command, result string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(command, result).Inc()
}

func (r *Recorder) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// PromptWait - сколько ждали ответа; result - answered или timeout
func (r *Recorder) PromptWait(seconds float64, result string) {
	if r == nil {
		return
	}
	r.promptWait.WithLabelValues(result).Observe(seconds)
}
