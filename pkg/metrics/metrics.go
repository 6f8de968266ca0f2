// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus instrumentation for coapattr.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for coapattr. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Codec metrics
	OptionsDecoded *prometheus.CounterVec
	OptionsEncoded *prometheus.CounterVec
	OptionErrors   *prometheus.CounterVec
	OptionsIgnored *prometheus.CounterVec

	// Message metrics
	Messages        *prometheus.CounterVec
	MessageOptions  *prometheus.HistogramVec
	MessageDuration *prometheus.HistogramVec

	// Discovery metrics
	DiscoveryResources *prometheus.CounterVec
	DiscoveryChanges   *prometheus.CounterVec
}

// New creates a new Metrics instance registered with reg. If reg is nil,
// the default Prometheus registerer is used.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "coapattr"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OptionsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "options_decoded_total",
				Help:      "Total number of options decoded into attributes",
			},
			[]string{"option"},
		),
		OptionsEncoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "options_encoded_total",
				Help:      "Total number of options encoded from attributes",
			},
			[]string{"option"},
		),
		OptionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "option_errors_total",
				Help:      "Total number of option values rejected",
			},
			[]string{"option", "op"},
		),
		OptionsIgnored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "options_ignored_total",
				Help:      "Total number of invalid options skipped and reported",
			},
			[]string{"option", "op"},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Total number of CoAP messages parsed",
			},
			[]string{"direction", "code", "status"},
		),
		MessageOptions: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "message_options",
				Help:      "Number of options per parsed message",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"direction"},
		),
		MessageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "message_duration_seconds",
				Help:      "Time spent parsing and handling one message",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
		DiscoveryResources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_resources_total",
				Help:      "Total number of discovered resources parsed",
			},
			[]string{"format"},
		),
		DiscoveryChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_changes_total",
				Help:      "Total number of resources added or removed between discovery snapshots",
			},
			[]string{"change"},
		),
	}
}

// OptionDecoded counts one decoded option.
func (m *Metrics) OptionDecoded(option string) {
	if m == nil {
		return
	}
	m.OptionsDecoded.WithLabelValues(option).Inc()
}

// OptionEncoded counts one encoded option.
func (m *Metrics) OptionEncoded(option string) {
	if m == nil {
		return
	}
	m.OptionsEncoded.WithLabelValues(option).Inc()
}

// OptionError counts one rejected option value.
func (m *Metrics) OptionError(option, op string) {
	if m == nil {
		return
	}
	m.OptionErrors.WithLabelValues(option, op).Inc()
}

// OptionIgnored counts one skipped option value.
func (m *Metrics) OptionIgnored(option, op string) {
	if m == nil {
		return
	}
	m.OptionsIgnored.WithLabelValues(option, op).Inc()
}

// Discovered counts parsed discovery resources.
func (m *Metrics) Discovered(format string, n int) {
	if m == nil {
		return
	}
	m.DiscoveryResources.WithLabelValues(format).Add(float64(n))
}

// DiscoveryDiff counts resources added and removed between snapshots.
func (m *Metrics) DiscoveryDiff(added, removed int) {
	if m == nil {
		return
	}
	m.DiscoveryChanges.WithLabelValues("added").Add(float64(added))
	m.DiscoveryChanges.WithLabelValues("removed").Add(float64(removed))
}

// ObserveMessage tracks the handling of one message. f returns the message
// code and option count.
func (m *Metrics) ObserveMessage(direction string, f func() (code string, options int, err error)) error {
	if m == nil {
		_, _, err := f()
		return err
	}
	start := time.Now()

	code, options, err := f()
	status := "success"
	if err != nil {
		status = "error"
	}

	m.Messages.WithLabelValues(direction, code, status).Inc()
	m.MessageOptions.WithLabelValues(direction).Observe(float64(options))
	m.MessageDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())

	return err
}
