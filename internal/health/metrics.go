package health

import "github.com/prometheus/client_golang/prometheus"

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridhealth_resolutions_total",
			Help: "Device health resolutions by score source.",
		},
		[]string{"source"},
	)
	summaryFleetSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gridhealth_summary_fleet_size",
			Help:    "Device count per organization summary request.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

func init() {
	prometheus.MustRegister(resolutionsTotal)
	prometheus.MustRegister(summaryFleetSize)
}
