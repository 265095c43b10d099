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
	"fmt"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/tudou/errors"
)

// Config describes a TcpServer's bind address and tunables, validated
// via struct tags before New builds the server.
type Config struct {
	ListenIP       string `mapstructure:"listenIP" json:"listenIP" yaml:"listenIP" toml:"listenIP" validate:"required,ip4_addr"`
	ListenPort     int    `mapstructure:"listenPort" json:"listenPort" yaml:"listenPort" toml:"listenPort" validate:"min=0,max=65535"`
	IOLoopCount    int    `mapstructure:"ioLoopCount" json:"ioLoopCount" yaml:"ioLoopCount" toml:"ioLoopCount" validate:"min=0,max=1024"`
	HighWaterBytes int    `mapstructure:"highWaterBytes" json:"highWaterBytes" yaml:"highWaterBytes" toml:"highWaterBytes" validate:"min=0"`
}

// DefaultConfig mirrors the values a zero-configured TcpServer would use.
func DefaultConfig() Config {
	return Config{
		ListenIP:       "0.0.0.0",
		ListenPort:     8080,
		IOLoopCount:    4,
		HighWaterBytes: 64 * 1024 * 1024,
	}
}

// Validate checks every struct tag constraint and returns a single
// aggregated Error listing each violated field and tag.
func (c *Config) Validate() liberr.Error {
	err := ErrorConfigInvalid.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}

		for _, e := range er.(libval.ValidationErrors) {
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if err.HasParent() {
		return err
	}

	return nil
}
