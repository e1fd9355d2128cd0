// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/transparency-dev/certassets/host"
)

type metrics struct {
	reg        *prometheus.Registry
	responses  *prometheus.CounterVec
	insertions prometheus.Counter
	assets     prometheus.Gauge
	revision   prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetserver_responses_total",
			Help: "Number of certified responses served, by status code.",
		}, []string{"code"}),
		insertions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assetserver_uploads_total",
			Help: "Number of assets uploaded through the admin API.",
		}),
		assets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assetserver_assets",
			Help: "Number of paths with a certified asset.",
		}),
		revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assetserver_revision",
			Help: "Revision of the latest certificate.",
		}),
	}
	m.reg.MustRegister(m.responses, m.insertions, m.assets, m.revision)
	return m
}

func (m *metrics) observeResponse(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *metrics) observeCommit(c host.Commit) {
	m.revision.Set(float64(c.Revision))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
