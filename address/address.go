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

// Package address models the immutable IPv4 endpoints the reactor binds,
// accepts and connects with.
package address

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	liberr "github.com/nabbar/tudou/errors"
)

const (
	ErrorInvalidAddress liberr.CodeError = iota + liberr.MinPkgAddress
	ErrorInvalidPort
)

func init() {
	liberr.RegisterIdFctMessage(ErrorInvalidAddress, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorInvalidAddress:
		return "given address is not a valid IPv4 address"
	case ErrorInvalidPort:
		return "given port is out of the 0-65535 range"
	}
	return ""
}

// Address is an immutable IPv4 endpoint (ip, port).
type Address struct {
	ip   [4]byte
	port uint16
}

// New builds an Address from a dotted-quad IPv4 string and a port.
func New(ip string, port int) (Address, liberr.Error) {
	if port < 0 || port > 65535 {
		return Address{}, ErrorInvalidPort.Error()
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Address{}, ErrorInvalidAddress.Error()
	}

	v4 := parsed.To4()
	if v4 == nil {
		return Address{}, ErrorInvalidAddress.Error()
	}

	var a Address
	copy(a.ip[:], v4)
	a.port = uint16(port)

	return a, nil
}

// Loopback returns 127.0.0.1:port.
func Loopback(port int) (Address, liberr.Error) {
	return New("127.0.0.1", port)
}

// Any returns 0.0.0.0:port, suitable for binding on every interface.
func Any(port int) (Address, liberr.Error) {
	return New("0.0.0.0", port)
}

// FromSockaddrInet4 converts a raw unix.SockaddrInet4, as returned by
// accept4/getsockname, into an Address.
func FromSockaddrInet4(sa *unix.SockaddrInet4) Address {
	var a Address
	copy(a.ip[:], sa.Addr[:])
	a.port = uint16(sa.Port)
	return a
}

// ToSockaddrInet4 converts the Address into the raw form bind/connect expect.
func (a Address) ToSockaddrInet4() *unix.SockaddrInet4 {
	return &unix.SockaddrInet4{
		Port: int(a.port),
		Addr: a.ip,
	}
}

func (a Address) IP() net.IP {
	return net.IPv4(a.ip[0], a.ip[1], a.ip[2], a.ip[3])
}

func (a Address) Port() int {
	return int(a.port)
}

// Uint32 returns the IP encoded as a big-endian uint32, the network byte order.
func (a Address) Uint32() uint32 {
	return binary.BigEndian.Uint32(a.ip[:])
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.IP().String(), a.port)
}

func (a Address) Equal(o Address) bool {
	return a.ip == o.ip && a.port == o.port
}

func (a Address) IsZero() bool {
	return a.ip == [4]byte{} && a.port == 0
}
