package elfreader

import "github.com/prometheus/client_golang/prometheus"

const (
	statusSuccess = "success"
	statusError   = "error"
)

type Metrics struct {
	Loads        *prometheus.CounterVec
	LoadErrors   *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	BytesRead    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readelf_loads_total",
			Help: "Total number of ELF model loads by status",
		}, []string{"status"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readelf_load_errors_total",
			Help: "Total number of failed ELF model loads by the stage that failed",
		}, []string{"stage"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readelf_load_duration_seconds",
			Help:    "Time spent loading an ELF model",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readelf_bytes_read_total",
			Help: "Total number of bytes read from ELF inputs",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Loads,
			m.LoadErrors,
			m.LoadDuration,
			m.BytesRead,
		)
	}

	return m
}

// countingSource counts the bytes read through it.
type countingSource struct {
	Source
	m *Metrics
}

func (c countingSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.Source.ReadAt(p, off)
	c.m.BytesRead.Add(float64(n))
	return n, err
}
