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

package httpserver

import (
	"strconv"
	"sync"

	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/httpmsg"
	"github.com/nabbar/tudou/httpparser"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/reactor"
	"github.com/nabbar/tudou/tcp"
)

// HttpHandler fills resp in response to req. It runs on the owning
// connection's I/O loop thread; long work must be offloaded by the
// caller.
type HttpHandler func(req *httpmsg.Request, resp *httpmsg.Response)

// HttpServer layers HTTP/1.x framing on top of a tcp.TcpServer: one
// httpparser.Parser per connection, and a single user handler.
type HttpServer struct {
	log logger.Logger
	tcp *tcp.TcpServer

	mu      sync.Mutex
	parsers map[int]*httpparser.Parser

	handler HttpHandler
}

// New validates cfg, builds the underlying tcp.TcpServer and wires its
// connection/message/close callbacks to the HTTP pipeline.
func New(log logger.Logger, cfg tcp.Config) (*HttpServer, liberr.Error) {
	t, err := tcp.New(log, cfg)
	if err != nil {
		return nil, err
	}

	s := &HttpServer{
		log:     log,
		tcp:     t,
		parsers: make(map[int]*httpparser.Parser),
	}

	t.SetConnectionCallback(s.onConnect)
	t.SetMessageCallback(s.onMessage)
	t.SetCloseCallback(s.onClose)

	return s, nil
}

// AcceptorFd exposes the underlying TcpServer's listening socket fd.
func (s *HttpServer) AcceptorFd() int { return s.tcp.AcceptorFd() }

// SetMetrics forwards to the underlying TcpServer.
func (s *HttpServer) SetMetrics(m tcp.MetricsSink) {
	s.tcp.SetMetrics(m)
}

// Pool exposes the underlying TcpServer's LoopPool, mainly so callers
// can sample per-loop metrics.
func (s *HttpServer) Pool() *reactor.LoopPool {
	return s.tcp.Pool()
}

// SetHandler installs the single HTTP request handler. Without one,
// every request receives the default 404.
func (s *HttpServer) SetHandler(h HttpHandler) {
	s.handler = h
}

// Start blocks running the underlying TcpServer's event loops.
func (s *HttpServer) Start() liberr.Error {
	return s.tcp.Start()
}

func (s *HttpServer) Stop() {
	s.tcp.Stop()
}

func (s *HttpServer) onConnect(fd int) {
	s.mu.Lock()
	if _, exists := s.parsers[fd]; exists {
		s.log.Entry(level.WarnLevel, "overwriting existing parser for fd").
			FieldAdd("fd", fd).
			Log()
	}
	s.parsers[fd] = httpparser.New()
	s.mu.Unlock()
}

func (s *HttpServer) onClose(fd int) {
	s.mu.Lock()
	delete(s.parsers, fd)
	s.mu.Unlock()
}

// maxPipelinedResponsesPerBatch bounds how many complete requests
// onMessage/drain will answer before yielding back to the event loop,
// so one connection's pipelined burst cannot monopolize its I/O loop
// thread and starve every other connection assigned to it.
const maxPipelinedResponsesPerBatch = 16

// onMessage implements the HttpServer pipeline: the map mutex is held
// only long enough to copy the parser reference out, so parsing and
// handling run with the lock released.
func (s *HttpServer) onMessage(fd int, data []byte) {
	s.mu.Lock()
	p, ok := s.parsers[fd]
	s.mu.Unlock()

	if !ok {
		return
	}

	s.drain(fd, p, data, maxPipelinedResponsesPerBatch)
}

// drain answers every complete request already parsed or sitting in
// p's residual buffer. A single read can carry more than one pipelined
// request, and Parse only ever advances one request per call, returning
// as soon as it completes and leaving any following request's bytes in
// the residual buffer. So after handling a completed request, Parse is
// called again with no new data to pick up whatever pipelined bytes are
// already buffered, until a request is left incomplete, a response
// closes the connection, or budget runs out — at which point the
// remaining work is posted back onto the connection's own loop via
// PostToConnection so other channels on that loop get a turn first.
func (s *HttpServer) drain(fd int, p *httpparser.Parser, data []byte, budget int) {
	ok, _ := p.Parse(data)

	for {
		if !ok {
			bad := badRequestResponse()
			p.Reset()
			s.sendResponse(fd, bad)
			return
		}

		if !p.Complete() {
			return
		}

		req := p.Request()
		resp := httpmsg.NewResponse()

		if s.handler != nil {
			s.handler(req, resp)
		} else {
			fillNotFound(resp)
		}

		ensureContentLength(resp)
		closing := resp.Close()
		p.Reset()
		s.sendResponse(fd, resp)

		if closing {
			return
		}

		budget--
		if budget <= 0 {
			s.tcp.PostToConnection(fd, func() {
				s.resumeDrain(fd, p)
			})
			return
		}

		ok, _ = p.Parse(nil)
	}
}

// resumeDrain re-validates that fd still names the same connection p was
// parsing for before continuing a deferred drain. Between scheduling the
// continuation and it actually running, the connection may have closed and
// the kernel may have handed its fd to a brand new connection; s.parsers[fd]
// would then hold a different *httpparser.Parser, and resuming the old one
// would write a stale response onto an unrelated peer.
func (s *HttpServer) resumeDrain(fd int, p *httpparser.Parser) {
	s.mu.Lock()
	cur, ok := s.parsers[fd]
	s.mu.Unlock()

	if !ok || cur != p {
		return
	}

	s.drain(fd, p, nil, maxPipelinedResponsesPerBatch)
}

func (s *HttpServer) sendResponse(fd int, resp *httpmsg.Response) {
	if resp.Close() {
		s.tcp.SendAndClose(fd, resp.Serialize())
	} else {
		s.tcp.Send(fd, resp.Serialize())
	}
}

func ensureContentLength(resp *httpmsg.Response) {
	if resp.Header("Content-Length") != "" {
		return
	}
	resp.AddHeader("Content-Length", strconv.Itoa(len(resp.Body())))
}

func badRequestResponse() *httpmsg.Response {
	r := httpmsg.NewResponse()
	r.SetStatus(400, "Bad Request")
	r.AddHeader("Content-Type", "text/plain")
	r.SetBody([]byte("Bad Request"))
	r.SetClose(true)
	r.AddHeader("Content-Length", strconv.Itoa(len(r.Body())))
	return r
}

func fillNotFound(resp *httpmsg.Response) {
	resp.SetStatus(404, "Not Found")
	resp.AddHeader("Content-Type", "text/plain")
	resp.SetBody([]byte("Not Found"))
	resp.SetClose(true)
}
