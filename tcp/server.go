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

package tcp

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/nabbar/tudou/address"
	liberr "github.com/nabbar/tudou/errors"
	"github.com/nabbar/tudou/logger"
	"github.com/nabbar/tudou/logger/level"
	"github.com/nabbar/tudou/reactor"
)

// ConnectionCallback, MessageCallback, CloseCallback, ErrorCallback,
// WriteCompleteCallback and HighWaterCallback are keyed by fd rather
// than by *Connection: business layers only need connection identity
// and payload, never the tcp package's internals.
type ConnectionCallback func(fd int)
type MessageCallback func(fd int, data []byte)
type CloseCallback func(fd int)
type ErrorCallback func(fd int, err error)
type WriteCompleteCallback func(fd int)
type HighWaterCallback func(fd int, pending int)

// MetricsSink receives counters from a TcpServer and its Connections.
// Accepting this interface rather than a concrete *metrics.Collector
// keeps the tcp package free of any dependency on the metrics stack.
type MetricsSink interface {
	IncAccepted()
	SetConnections(n int)
	AddBytesIn(n int64)
	AddBytesOut(n int64)
}

// TcpServer owns a LoopPool, an Acceptor bound to the pool's main loop,
// and the fd-to-Connection registry shared across every I/O loop.
type TcpServer struct {
	log logger.Logger
	cfg Config

	pool     *reactor.LoopPool
	acceptor *Acceptor

	mu   sync.Mutex
	conn map[int]*Connection

	metrics MetricsSink

	onConnection    ConnectionCallback
	onMessage       MessageCallback
	onClose         CloseCallback
	onError         ErrorCallback
	onWriteComplete WriteCompleteCallback
	onHighWater     HighWaterCallback
}

// New validates cfg, builds a LoopPool and binds an Acceptor to its
// main loop. The server does not start listening until Start is called.
func New(log logger.Logger, cfg Config) (*TcpServer, liberr.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := reactor.NewLoopPool(log)
	if err != nil {
		return nil, err
	}

	addr, e := address.New(cfg.ListenIP, cfg.ListenPort)
	if e != nil {
		return nil, e
	}

	a, err := NewAcceptor(log, pool.MainLoop(), addr)
	if err != nil {
		return nil, err
	}

	s := &TcpServer{
		log:      log,
		cfg:      cfg,
		pool:     pool,
		acceptor: a,
		conn:     make(map[int]*Connection),
	}

	a.SetConnectCallback(s.onAccept)

	return s, nil
}

// AcceptorFd exposes the listening socket's fd, mainly so callers can
// resolve the actual bound port when ListenPort was 0.
func (s *TcpServer) AcceptorFd() int { return s.acceptor.ListenFd() }

// Pool exposes the underlying LoopPool, mainly so callers can sample
// per-loop metrics.
func (s *TcpServer) Pool() *reactor.LoopPool { return s.pool }

func (s *TcpServer) SetConnectionCallback(cb ConnectionCallback)       { s.onConnection = cb }
func (s *TcpServer) SetMessageCallback(cb MessageCallback)             { s.onMessage = cb }
func (s *TcpServer) SetCloseCallback(cb CloseCallback)                 { s.onClose = cb }
func (s *TcpServer) SetErrorCallback(cb ErrorCallback)                 { s.onError = cb }
func (s *TcpServer) SetWriteCompleteCallback(cb WriteCompleteCallback) { s.onWriteComplete = cb }
func (s *TcpServer) SetHighWaterCallback(cb HighWaterCallback)         { s.onHighWater = cb }

// SetMetrics installs an optional sink fed from the accept path and
// every Connection created afterward. A nil sink (the default)
// disables instrumentation entirely.
func (s *TcpServer) SetMetrics(m MetricsSink) {
	s.metrics = m
}

// Start brings up every I/O loop in the pool then starts accepting
// connections on the main loop. It blocks until the main loop quits.
func (s *TcpServer) Start() liberr.Error {
	if err := s.pool.Start(s.cfg.IOLoopCount, nil); err != nil {
		return err
	}

	s.acceptor.Start()
	s.pool.MainLoop().Run()
	return nil
}

// Stop asks every loop in the pool to quit. It does not close
// Connections or their fds, and leaves their Channels registered.
func (s *TcpServer) Stop() {
	s.pool.Stop()
}

// Send posts data to the Connection owning fd, if still registered, on
// that connection's own loop thread.
func (s *TcpServer) Send(fd int, data []byte) {
	s.mu.Lock()
	c, ok := s.conn[fd]
	s.mu.Unlock()

	if !ok {
		return
	}

	c.loop.RunInLoop(func() {
		c.Send(data)
	})
}

// PostToConnection queues task onto the Connection owning fd's own loop,
// always via QueueInLoop rather than RunInLoop: even when called from
// that same loop's thread, task runs on a later drain pass instead of
// inline, letting the loop service its other channels first. This is
// how a handler that must process its own connection's data in bounded
// batches (e.g. a large pipelined burst) yields back to the loop
// between batches instead of monopolizing the thread.
func (s *TcpServer) PostToConnection(fd int, task func()) {
	s.mu.Lock()
	c, ok := s.conn[fd]
	s.mu.Unlock()

	if !ok {
		return
	}

	c.loop.QueueInLoop(task)
}

// SendAndClose posts data to the Connection owning fd and closes it
// once the write buffer has fully drained.
func (s *TcpServer) SendAndClose(fd int, data []byte) {
	s.mu.Lock()
	c, ok := s.conn[fd]
	s.mu.Unlock()

	if !ok {
		return
	}

	c.loop.RunInLoop(func() {
		c.SendAndClose(data)
	})
}

// CloseConnection tears down the Connection owning fd, if still
// registered, on that connection's own loop thread.
func (s *TcpServer) CloseConnection(fd int) {
	s.mu.Lock()
	c, ok := s.conn[fd]
	s.mu.Unlock()

	if !ok {
		return
	}

	c.loop.RunInLoop(c.Close)
}

// ConnectionCount reports the number of currently registered connections.
func (s *TcpServer) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conn)
}

// onAccept runs on the main loop: it claims the freshly accepted fd,
// resolves its local address, picks the next I/O loop round-robin and
// posts the Connection's construction there.
func (s *TcpServer) onAccept(a *Acceptor) {
	s.pool.MainLoop().AssertInLoopThread()

	fd, peer := a.TakeAcceptedFd()
	if fd < 0 {
		return
	}

	sa, e := unix.Getsockname(fd)
	if e != nil {
		s.log.CheckError(level.ErrorLevel, level.NilLevel, "getsockname failed", ErrorGetsockname.Error(e))
		_ = unix.Close(fd)
		return
	}

	var local address.Address
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		local = address.FromSockaddrInet4(sa4)
	}

	if s.metrics != nil {
		s.metrics.IncAccepted()
	}

	loop := s.pool.NextLoop()
	loop.RunInLoop(func() {
		s.setupConnection(loop, fd, local, peer)
	})
}

// setupConnection runs on the chosen I/O loop: it builds the
// Connection, wires its callbacks, registers it in the fd map and
// finally ties its Channel's dispatch to the registration's liveness.
func (s *TcpServer) setupConnection(loop *reactor.Loop, fd int, local, peer address.Address) {
	c := NewConnection(s.log, loop, fd, local, peer)
	c.SetHighWaterMark(int64(s.cfg.HighWaterBytes))
	c.SetMetrics(s.metrics)

	c.SetMessageCallback(func(conn *Connection, data []byte) {
		if s.onMessage != nil {
			s.onMessage(conn.Fd(), data)
		}
	})

	c.SetCloseCallback(func(conn *Connection) {
		s.removeConnection(conn)
		if s.onClose != nil {
			s.onClose(conn.Fd())
		}
	})

	c.SetErrorCallback(func(conn *Connection, err error) {
		if s.onError != nil {
			s.onError(conn.Fd(), err)
		}
	})

	c.SetWriteCompleteCallback(func(conn *Connection) {
		if s.onWriteComplete != nil {
			s.onWriteComplete(conn.Fd())
		}
	})

	c.SetHighWaterCallback(func(conn *Connection, pending int) {
		if s.onHighWater != nil {
			s.onHighWater(conn.Fd(), pending)
		}
	})

	s.mu.Lock()
	s.conn[fd] = c
	count := len(s.conn)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetConnections(count)
	}

	c.Established()

	if s.onConnection != nil {
		s.onConnection(fd)
	}
}

// removeConnection drops fd from the registry. It may be called from
// any loop thread since it only touches the mutex-guarded map.
func (s *TcpServer) removeConnection(c *Connection) {
	s.mu.Lock()
	delete(s.conn, c.Fd())
	count := len(s.conn)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetConnections(count)
	}
}
