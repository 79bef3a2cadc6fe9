package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketreg", Name: "mutations_total", Help: "Successful store mutations by action",
	}, []string{"action"})
	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketreg", Name: "import_rows_total", Help: "Imported spreadsheet rows by outcome",
	}, []string{"outcome"})
	Subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ticketreg", Name: "broadcast_subscribers", Help: "Currently connected event-stream clients",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ticketreg", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Mutations, ImportRows, Subscribers, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func RecordMutation(action string) { Mutations.WithLabelValues(action).Inc() }
