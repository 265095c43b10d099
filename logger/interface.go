/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/tudou/logger/level"
)

// Logger is the structured logging entry point shared by every Tudou package.
type Logger interface {
	SetLevel(lvl level.Level)
	GetLevel() level.Level

	SetFields(f Fields)
	GetFields() Fields

	// Entry returns a fresh Entry at lvl, ready to accumulate fields/errors
	// before Log() is called on it.
	Entry(lvl level.Level, message string) *Entry

	Debug(message string, data interface{})
	Info(message string, data interface{})
	Warning(message string, data interface{})
	Error(message string, data interface{})
	Fatal(message string, data interface{})

	// CheckError logs at lvlKO if err is non-nil, or at lvlOK otherwise
	// (skipping entirely if lvlOK is level.NilLevel). Returns true if err
	// was non-nil.
	CheckError(lvlKO, lvlOK level.Level, message string, err error) bool
}

type lgr struct {
	m sync.RWMutex
	l *logrus.Logger
	v level.Level
	f Fields
}

// New returns a Logger backed by a fresh logrus.Logger with the console
// hook registered and InfoLevel as the default threshold.
func New() Logger {
	l := &lgr{
		l: logrus.New(),
		f: NewFields(),
	}

	l.l.SetOutput(io.Discard)

	l.SetLevel(level.InfoLevel)
	RegisterConsoleHook(l.l)

	return l
}

func (l *lgr) SetLevel(lvl level.Level) {
	l.m.Lock()
	defer l.m.Unlock()

	l.v = lvl
	l.l.SetLevel(lvl.Logrus())
}

func (l *lgr) GetLevel() level.Level {
	l.m.RLock()
	defer l.m.RUnlock()

	return l.v
}

func (l *lgr) SetFields(f Fields) {
	l.m.Lock()
	defer l.m.Unlock()

	l.f = f
}

func (l *lgr) GetFields() Fields {
	l.m.RLock()
	defer l.m.RUnlock()

	return l.f
}

func (l *lgr) Entry(lvl level.Level, message string) *Entry {
	return &Entry{
		log:     func() *logrus.Logger { return l.l },
		Level:   lvl,
		Message: message,
		Fields:  l.GetFields(),
	}
}

func (l *lgr) Debug(message string, data interface{}) {
	l.Entry(level.DebugLevel, message).DataSet(data).Log()
}

func (l *lgr) Info(message string, data interface{}) {
	l.Entry(level.InfoLevel, message).DataSet(data).Log()
}

func (l *lgr) Warning(message string, data interface{}) {
	l.Entry(level.WarnLevel, message).DataSet(data).Log()
}

func (l *lgr) Error(message string, data interface{}) {
	l.Entry(level.ErrorLevel, message).DataSet(data).Log()
}

func (l *lgr) Fatal(message string, data interface{}) {
	l.Entry(level.FatalLevel, message).DataSet(data).Log()
}

func (l *lgr) CheckError(lvlKO, lvlOK level.Level, message string, err error) bool {
	e := l.Entry(lvlKO, message).ErrorAdd(true, err)
	return e.Check(lvlOK)
}
