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

// Package buffer provides the byte-stream buffer every Connection reads
// into and writes from: a growable slice with a small fixed prepend
// region (for length-prefix framing written after the payload is known)
// and vectored-I/O helpers for reading straight off a file descriptor.
package buffer

import (
	"bytes"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorReadFd liberr.CodeError = iota + liberr.MinPkgBuffer
	ErrorWriteFd
)

func init() {
	liberr.RegisterIdFctMessage(ErrorReadFd, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorReadFd:
		return "read from file descriptor failed"
	case ErrorWriteFd:
		return "write to file descriptor failed"
	}
	return ""
}

const (
	// kPrepend is the fixed space reserved at the front of the buffer for
	// writing a frame length after its payload has already been appended.
	kPrepend = 8

	kInitialSize = 1024

	// overflowSize is the stack-resident scratch buffer ReadFromFd spills
	// excess bytes into when a single read would not fit in the writable
	// region, avoiding an unconditional large heap allocation per read.
	overflowSize = 65536
)

// Buffer is a growable byte stream: [prependable][readable][writable].
// Not safe for concurrent use; each Connection owns exactly one.
type Buffer struct {
	buf        []byte
	readIndex  int
	writeIndex int
}

// New returns an empty Buffer with the prepend region reserved.
func New() *Buffer {
	return &Buffer{
		buf:        make([]byte, kPrepend+kInitialSize),
		readIndex:  kPrepend,
		writeIndex: kPrepend,
	}
}

func (b *Buffer) ReadableBytes() int {
	return b.writeIndex - b.readIndex
}

func (b *Buffer) WritableBytes() int {
	return len(b.buf) - b.writeIndex
}

func (b *Buffer) PrependableBytes() int {
	return b.readIndex
}

// Peek returns the readable region without consuming it.
func (b *Buffer) Peek() []byte {
	return b.buf[b.readIndex:b.writeIndex]
}

// Retrieve consumes n bytes from the front of the readable region.
// n is clamped to ReadableBytes.
func (b *Buffer) Retrieve(n int) {
	if n >= b.ReadableBytes() {
		b.RetrieveAll()
		return
	}
	b.readIndex += n
}

// RetrieveAll consumes the entire readable region and resets indices,
// reclaiming the prepend space for the next message.
func (b *Buffer) RetrieveAll() {
	b.readIndex = kPrepend
	b.writeIndex = kPrepend
}

// Read consumes and returns the next n bytes. n is clamped to ReadableBytes.
func (b *Buffer) Read(n int) []byte {
	if n > b.ReadableBytes() {
		n = b.ReadableBytes()
	}
	out := make([]byte, n)
	copy(out, b.buf[b.readIndex:b.readIndex+n])
	b.Retrieve(n)
	return out
}

// ReadAll consumes and returns every readable byte.
func (b *Buffer) ReadAll() []byte {
	return b.Read(b.ReadableBytes())
}

// Write appends data to the writable region, growing the buffer if needed.
func (b *Buffer) Write(data []byte) {
	b.ensureWritable(len(data))
	b.writeIndex += copy(b.buf[b.writeIndex:], data)
}

// WriteString is a convenience wrapper around Write.
func (b *Buffer) WriteString(s string) {
	b.Write([]byte(s))
}

// Prepend writes data just before the readable region, into the
// kPrepend-sized reserved space. Panics if data does not fit, the same
// contract the original implementation enforces at the call site.
func (b *Buffer) Prepend(data []byte) {
	if len(data) > b.PrependableBytes() {
		panic("buffer: prepend does not fit in reserved space")
	}
	b.readIndex -= len(data)
	copy(b.buf[b.readIndex:], data)
}

// ensureWritable grows or slides the buffer so that n more bytes fit.
//
// If prepend+writable space already covers n once the readable bytes are
// slid back to kPrepend, the buffer is reused in place (no allocation).
// Otherwise, it is reallocated to writeIndex+n bytes and the readable
// bytes are moved back to kPrepend.
func (b *Buffer) ensureWritable(n int) {
	if b.WritableBytes() >= n {
		return
	}

	if b.PrependableBytes()-kPrepend+b.WritableBytes() >= n {
		readable := b.ReadableBytes()
		copy(b.buf[kPrepend:], b.buf[b.readIndex:b.writeIndex])
		b.readIndex = kPrepend
		b.writeIndex = kPrepend + readable
		return
	}

	readable := b.ReadableBytes()
	newCap := b.writeIndex + n
	nb := make([]byte, newCap)
	copy(nb[kPrepend:], b.buf[b.readIndex:b.writeIndex])
	b.buf = nb
	b.readIndex = kPrepend
	b.writeIndex = kPrepend + readable
}

// ReadFromFd performs a single non-blocking readv into the writable
// region plus a 64KiB stack-resident overflow buffer, so one syscall can
// drain a large burst of kernel-buffered data without growing Buffer by
// more than it ends up needing.
//
// The three outcomes are distinguished explicitly rather than collapsed
// into n==0: a transient EAGAIN/EWOULDBLOCK returns (0, false, nil) and
// the caller should simply wait for the next readable event; a peer that
// has closed its end returns (0, true, nil); any other failure returns a
// non-nil err.
func (b *Buffer) ReadFromFd(fd int) (n int, eof bool, err liberr.Error) {
	var overflow [overflowSize]byte

	writable := b.WritableBytes()
	if writable < kInitialSize {
		b.ensureWritable(kInitialSize)
		writable = b.WritableBytes()
	}

	iov := [][]byte{
		b.buf[b.writeIndex : b.writeIndex+writable],
		overflow[:],
	}

	read, e := unix.Readv(fd, iov)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return 0, false, nil
		}
		return 0, false, ErrorReadFd.Error(e)
	}

	if read == 0 {
		return 0, true, nil
	}

	if read <= writable {
		b.writeIndex += read
		return read, false, nil
	}

	b.writeIndex += writable
	extra := read - writable
	b.Write(overflow[:extra])

	return read, false, nil
}

// WriteToFd performs a single non-blocking write of the readable region.
func (b *Buffer) WriteToFd(fd int) (n int, err liberr.Error) {
	if b.ReadableBytes() == 0 {
		return 0, nil
	}

	written, e := unix.Write(fd, b.Peek())
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, ErrorWriteFd.Error(e)
	}

	b.Retrieve(written)
	return written, nil
}

// IndexCRLF returns the offset of the first "\r\n" within the readable
// region, or -1 if not found. Used by the HTTP parser to find line ends.
func (b *Buffer) IndexCRLF() int {
	idx := bytes.Index(b.Peek(), []byte("\r\n"))
	if idx < 0 {
		return -1
	}
	return idx
}
