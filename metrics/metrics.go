// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus metrics for the NGAP engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "gnbngap"

	DirectionTx = "tx"
	DirectionRx = "rx"
)

type Metrics struct {
	NgapMessages           *prometheus.CounterVec
	NgapDecodeErrors       prometheus.Counter
	AmfAssociationState    prometheus.Gauge
	UeContexts             prometheus.Gauge
	NgSetupAttempts        *prometheus.CounterVec
	ErrorIndicationsDenied prometheus.Counter
}

// NewMetricsWithRegistry registers the metrics with reg
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		NgapMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ngap_messages_total",
				Help:      "NGAP messages exchanged with the AMF",
			},
			[]string{"direction", "message"},
		),
		NgapDecodeErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ngap_decode_errors_total",
				Help:      "Received NGAP packets that could not be decoded",
			},
		),
		AmfAssociationState: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "amf_association_state",
				Help:      "AMF association state (0 disconnected, 1 connecting, 2 awaiting setup response, 3 connected)",
			},
		),
		UeContexts: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ue_contexts",
				Help:      "UE contexts currently held",
			},
		),
		NgSetupAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ng_setup_attempts_total",
				Help:      "NG Setup attempts by result",
			},
			[]string{"result"},
		),
		ErrorIndicationsDenied: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "error_indications_suppressed_total",
				Help:      "Error Indications not sent because of the rate limit",
			},
		),
	}
}

func (m *Metrics) RecordMessageSent(message string) {
	if m == nil {
		return
	}
	m.NgapMessages.WithLabelValues(DirectionTx, message).Inc()
}

func (m *Metrics) RecordMessageReceived(message string) {
	if m == nil {
		return
	}
	m.NgapMessages.WithLabelValues(DirectionRx, message).Inc()
}

func (m *Metrics) RecordDecodeError() {
	if m == nil {
		return
	}
	m.NgapDecodeErrors.Inc()
}

func (m *Metrics) SetAssociationState(state int) {
	if m == nil {
		return
	}
	m.AmfAssociationState.Set(float64(state))
}

func (m *Metrics) SetUeContexts(count int) {
	if m == nil {
		return
	}
	m.UeContexts.Set(float64(count))
}

func (m *Metrics) RecordNgSetup(result string) {
	if m == nil {
		return
	}
	m.NgSetupAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordErrorIndicationSuppressed() {
	if m == nil {
		return
	}
	m.ErrorIndicationsDenied.Inc()
}
