package main

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

type FetcherMetrics struct {
	Connects     metrics.Counter
	AuthFailures metrics.Counter
	Fetched      metrics.Counter
	Deleted      metrics.Counter
}

type ClientMetrics struct {
	Fetcher *FetcherMetrics
}

func NewClientMetrics(prometheusAddr string) *ClientMetrics {

	m := &ClientMetrics{}

	if prometheusAddr == "" {
		m.Fetcher = &FetcherMetrics{
			Connects:     discard.NewCounter(),
			AuthFailures: discard.NewCounter(),
			Fetched:      discard.NewCounter(),
			Deleted:      discard.NewCounter(),
		}
	} else {
		m.Fetcher = &FetcherMetrics{
			Connects: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "pop3",
				Subsystem: "fetcher",
				Name:      "connects_total",
				Help:      "Number of connections established",
			}, nil),
			AuthFailures: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "pop3",
				Subsystem: "fetcher",
				Name:      "auth_failures_total",
				Help:      "Number of failed authentication attempts",
			}, nil),
			Fetched: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "pop3",
				Subsystem: "fetcher",
				Name:      "fetched_total",
				Help:      "Number of messages fetched",
			}, nil),
			Deleted: prometheus.NewCounterFrom(prom.CounterOpts{
				Namespace: "pop3",
				Subsystem: "fetcher",
				Name:      "deleted_total",
				Help:      "Number of messages deleted after fetch",
			}, nil),
		}
	}

	return m
}
