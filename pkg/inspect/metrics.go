package inspect

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/readelf/pkg/elfreader"
)

type Metrics struct {
	CacheOperations *prometheus.CounterVec
	Inputs          *prometheus.CounterVec

	Elf *elfreader.Metrics
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readelf_model_cache_operations_total",
			Help: "Total number of model cache operations by outcome",
		}, []string{"operation", "status"}),
		Inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readelf_inputs_total",
			Help: "Total number of input files opened by compression",
		}, []string{"compression"}),
		Elf: elfreader.NewMetrics(reg),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheOperations,
			m.Inputs,
		)
	}

	return m
}
