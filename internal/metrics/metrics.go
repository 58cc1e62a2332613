// Package metrics holds the prometheus collectors for map operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_config_resolutions_total",
		Help: "Configuration resolutions by outcome",
	}, []string{"outcome"})
	Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_viewport_classifications_total",
		Help: "Viewport classifications by resulting proximity",
	}, []string{"proximity"})
	Analyses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geomap_geojson_analyses_total",
		Help: "GeoJSON feature collections analyzed",
	})
	LayersSynthesized = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geomap_layers_synthesized_total",
		Help: "Default layers synthesized by primitive",
	}, []string{"primitive"})
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geomap_events_dropped_total",
		Help: "Session events skipped because a subscriber was full",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geomap_sessions_active",
		Help: "Map sessions currently held by the server",
	})
)

func init() {
	prometheus.MustRegister(Resolutions)
	prometheus.MustRegister(Classifications)
	prometheus.MustRegister(Analyses)
	prometheus.MustRegister(LayersSynthesized)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(ActiveSessions)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
