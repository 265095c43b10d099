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

package main

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/nabbar/tudou/httpmsg"
	"github.com/nabbar/tudou/router"
)

// handleMetrics renders reg's current state in Prometheus text
// exposition format. The reactor stack has no net/http.Handler to
// mount promhttp against, so the registry is gathered and encoded
// directly with expfmt, the same encoder promhttp uses internally.
func handleMetrics(reg *prometheus.Registry) router.Handler {
	return func(req *httpmsg.Request, resp *httpmsg.Response) {
		mfs, err := reg.Gather()
		if err != nil {
			resp.SetStatus(500, "Internal Server Error")
			resp.AddHeader("Content-Type", "text/plain")
			resp.SetBody([]byte("metrics gather failed"))
			return
		}

		var buf bytes.Buffer
		enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range mfs {
			if e := enc.Encode(mf); e != nil {
				resp.SetStatus(500, "Internal Server Error")
				resp.AddHeader("Content-Type", "text/plain")
				resp.SetBody([]byte("metrics encode failed"))
				return
			}
		}

		resp.SetStatus(200, "OK")
		resp.AddHeader("Content-Type", string(expfmt.FmtText))
		resp.SetBody(buf.Bytes())
	}
}
