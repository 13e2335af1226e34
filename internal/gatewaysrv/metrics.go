package gatewaysrv

import (
	"github.com/prometheus/client_golang/prometheus"
)

var dataRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "data_requests_total",
	Help: "Total number of requests to the /data endpoint.",
}, []string{"metric_name"})

func init() {
	prometheus.MustRegister(dataRequestsTotal)
}
