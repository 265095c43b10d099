/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/reactor"
)

// Collector satisfies tcp.MetricsSink and additionally samples a
// reactor.LoopPool's per-loop pending-task depth on demand. It holds no
// goroutine of its own; callers decide the sampling cadence.
type Collector struct {
	connections prometheus.Gauge
	accepted    prometheus.Counter
	bytesIn     prometheus.Counter
	bytesOut    prometheus.Counter
	loopPending *prometheus.GaugeVec
}

// New builds a Collector and registers every metric with reg.
// Registering the same namespace twice against the same Registerer
// returns ErrorRegisterCollector.
func New(reg prometheus.Registerer, namespace string) (*Collector, liberr.Error) {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of currently established TCP connections.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accepted_total",
			Help:      "Total number of accepted TCP connections.",
		}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_in_total",
			Help:      "Total bytes read from all connections.",
		}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_out_total",
			Help:      "Total bytes written to all connections.",
		}),
		loopPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loop_pending_tasks",
			Help:      "Depth of each event loop's pending cross-thread task queue.",
		}, []string{"loop_tid"}),
	}

	for _, coll := range []prometheus.Collector{c.connections, c.accepted, c.bytesIn, c.bytesOut, c.loopPending} {
		if err := reg.Register(coll); err != nil {
			return nil, ErrorRegisterCollector.Error(err)
		}
	}

	return c, nil
}

func (c *Collector) IncAccepted()         { c.accepted.Inc() }
func (c *Collector) SetConnections(n int) { c.connections.Set(float64(n)) }
func (c *Collector) AddBytesIn(n int64)   { c.bytesIn.Add(float64(n)) }
func (c *Collector) AddBytesOut(n int64)  { c.bytesOut.Add(float64(n)) }

// ObserveLoopPool samples every loop's Stats().PendingTasks into the
// per-loop gauge, labeled by OS thread id. Call it periodically; it
// performs no synchronization of its own beyond what Loop.Stats does.
func (c *Collector) ObserveLoopPool(pool *reactor.LoopPool) {
	for _, l := range pool.AllLoops() {
		stats := l.Stats()
		c.loopPending.WithLabelValues(strconv.Itoa(int(l.Tid()))).Set(float64(stats.PendingTasks))
	}
}
