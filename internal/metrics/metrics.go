package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quiz"

// Metrics counts game lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	gamesStarted  prometheus.Counter
	gamesFinished prometheus.Counter
	answers       *prometheus.CounterVec
	bonusSeconds  prometheus.Counter
	finalScores   prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the quiz collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Number of games started.",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Number of games whose result was recorded.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Submitted answers by outcome.",
		}, []string{"result"}),
		bonusSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bonus_seconds_total",
			Help:      "Bonus seconds awarded for correct answers.",
		}),
		finalScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Score of finished games.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.gamesStarted,
		m.gamesFinished,
		m.answers,
		m.bonusSeconds,
		m.finalScores,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.gamesStarted.Inc()
}

func (m *Metrics) AnswerSubmitted(correct bool, bonusSeconds int64) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.answers.WithLabelValues(result).Inc()
	if bonusSeconds > 0 {
		m.bonusSeconds.Add(float64(bonusSeconds))
	}
}

func (m *Metrics) GameFinished(score int) {
	if m == nil {
		return
	}
	m.gamesFinished.Inc()
	m.finalScores.Observe(float64(score))
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
