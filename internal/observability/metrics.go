package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	UnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidate_units_total",
			Help: "Input units processed, by status",
		},
		[]string{"status"},
	)

	RecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consolidate_records_total",
			Help: "Flattened records emitted",
		},
	)

	NullFilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "consolidate_null_filled_total",
			Help: "Missing keys filled with null during schema unification",
		},
	)

	DatasetColumns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "consolidate_dataset_columns",
			Help: "Columns of the last consolidated dataset",
		},
	)
)

// Register adds the collectors to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{UnitsTotal, RecordsTotal, NullFilledTotal, DatasetColumns} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start registers the collectors and serves /metrics on port.
func Start(port string) (*http.Server, error) {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	log.Infof("Serving metrics on :%s/metrics", port)
	return server, nil
}
