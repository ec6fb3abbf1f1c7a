// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace       = "mcp_atlassian"
	MetricsSubsystemSystem = "system"
	MetricsSubsystemHTTP   = "http"
	MetricsSubsystemTool   = "tool"
	MetricsSubsystemConfig = "config"

	MetricsVersionLabel   = "version"
	MetricsTransportLabel = "transport"

	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveToolCall(tool, status string, elapsed float64)
	ObserveHTTPRequest(handler, method, statusCode string, elapsed float64)
	SetProductAvailable(product string, available bool)
}

type InstanceInfo struct {
	Version   string
	Transport string
}

// metrics used to instrumentate metrics in prometheus.
type metrics struct {
	registry *prometheus.Registry

	startTime prometheus.Gauge
	info      prometheus.Gauge

	toolCallsTotal *prometheus.CounterVec
	toolTime       *prometheus.HistogramVec

	httpRequestsTotal *prometheus.CounterVec
	httpTime          *prometheus.HistogramVec

	productAvailable *prometheus.GaugeVec
}

// NewMetrics Factory method to create a new metrics collector.
func NewMetrics(info InstanceInfo) Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "start_timestamp_seconds",
		Help:      "The time the gateway started.",
	})
	m.startTime.SetToCurrentTime()
	m.registry.MustRegister(m.startTime)

	m.info = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "info",
		Help:      "The gateway version and transport.",
		ConstLabels: map[string]string{
			MetricsVersionLabel:   info.Version,
			MetricsTransportLabel: info.Transport,
		},
	})
	m.info.Set(1)
	m.registry.MustRegister(m.info)

	m.toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemTool,
		Name:      "calls_total",
		Help:      "The total number of MCP tool calls.",
	}, []string{"tool", "status"})
	m.registry.MustRegister(m.toolCallsTotal)

	m.toolTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemTool,
		Name:      "time_seconds",
		Help:      "Time to execute an MCP tool call.",
	}, []string{"tool"})
	m.registry.MustRegister(m.toolTime)

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "requests_total",
		Help:      "The total number of HTTP requests served in sse mode.",
	}, []string{"handler", "method", "status_code"})
	m.registry.MustRegister(m.httpRequestsTotal)

	m.httpTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemHTTP,
		Name:      "time_seconds",
		Help:      "Time to serve an HTTP request.",
	}, []string{"handler", "method", "status_code"})
	m.registry.MustRegister(m.httpTime)

	m.productAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemConfig,
		Name:      "product_available",
		Help:      "Whether a product resolved and is served (1) or was skipped (0).",
	}, []string{"product"})
	m.registry.MustRegister(m.productAvailable)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *metrics) ObserveToolCall(tool, status string, elapsed float64) {
	if m != nil {
		m.toolCallsTotal.With(prometheus.Labels{"tool": tool, "status": status}).Inc()
		m.toolTime.With(prometheus.Labels{"tool": tool}).Observe(elapsed)
	}
}

func (m *metrics) ObserveHTTPRequest(handler, method, statusCode string, elapsed float64) {
	if m != nil {
		labels := prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}
		m.httpRequestsTotal.With(labels).Inc()
		m.httpTime.With(labels).Observe(elapsed)
	}
}

func (m *metrics) SetProductAvailable(product string, available bool) {
	if m == nil {
		return
	}
	value := 0.0
	if available {
		value = 1
	}
	m.productAvailable.With(prometheus.Labels{"product": product}).Set(value)
}
