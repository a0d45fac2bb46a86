// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ala_agent",
		Subsystem: "name_cache",
		Name:      "lookups_total",
		Help:      "Name cache lookups by result (hit, negative, miss).",
	}, []string{"result"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ala_agent",
		Subsystem: "name_cache",
		Name:      "store_errors_total",
		Help:      "Name cache store failures by operation; each one degraded to a miss or a dropped write.",
	}, []string{"op"})
)
