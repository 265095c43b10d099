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

// Command tudou-httpd wires a Router, an HttpServer and a metrics
// Collector together as a small illustrative server: it answers "/"
// with a greeting and exposes Prometheus text exposition at "/metrics".
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nabbar/tudou/httpmsg"
	"github.com/nabbar/tudou/httpserver"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/metrics"
	"github.com/nabbar/tudou/router"
	"github.com/nabbar/tudou/tcp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		bindIP      string
		bindPort    int
		ioLoopCount int
	)

	cmd := &cobra.Command{
		Use:   "tudou-httpd",
		Short: "Serve a minimal HTTP endpoint on the reactor stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(bindIP, bindPort, ioLoopCount)
		},
	}

	cmd.Flags().StringVar(&bindIP, "bind-ip", "0.0.0.0", "listen address")
	cmd.Flags().IntVar(&bindPort, "bind-port", 8080, "listen port")
	cmd.Flags().IntVar(&ioLoopCount, "io-loops", 4, "number of I/O event loops")

	return cmd
}

func run(bindIP string, bindPort, ioLoopCount int) error {
	log := logger.New()

	cfg := tcp.DefaultConfig()
	cfg.ListenIP = bindIP
	cfg.ListenPort = bindPort
	cfg.IOLoopCount = ioLoopCount

	reg := prometheus.NewRegistry()
	coll, err := metrics.New(reg, "tudou_httpd")
	if err != nil {
		return err
	}

	srv, err := httpserver.New(log, cfg)
	if err != nil {
		return err
	}
	srv.SetMetrics(coll)

	rt := router.New(log)
	rt.Add("GET", "/", handleIndex)
	rt.AddPrefix("/metrics", handleMetrics(reg))
	srv.SetHandler(func(req *httpmsg.Request, resp *httpmsg.Response) {
		rt.Dispatch(req, resp)
	})

	go sampleLoopMetrics(srv, coll)

	log.Entry(level.InfoLevel, "listening").
		FieldAdd("ip", bindIP).
		FieldAdd("port", bindPort).
		FieldAdd("io_loops", ioLoopCount).
		Log()

	return srv.Start()
}

func handleIndex(req *httpmsg.Request, resp *httpmsg.Response) {
	resp.SetStatus(200, "OK")
	resp.AddHeader("Content-Type", "text/plain")
	resp.SetBody([]byte("tudou-httpd: hello from " + req.Path()))
}

// sampleLoopMetrics periodically publishes each I/O loop's pending-task
// depth. It is a plain ticker rather than a library abstraction: the
// sampling period is a fixed implementation detail, not a reusable
// scheduling concern.
func sampleLoopMetrics(srv *httpserver.HttpServer, coll *metrics.Collector) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()

	for range t.C {
		coll.ObserveLoopPool(srv.Pool())
	}
}
