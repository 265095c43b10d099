/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// consoleHook writes one colorized line per entry to stdout.
// Colors are disabled automatically when the destination is not a TTY.
type consoleHook struct {
	out   io.Writer
	color bool
}

// RegisterConsoleHook adds a console hook writing to stdout to log.
// Hooks already registered, including earlier console hooks, are kept.
func RegisterConsoleHook(log *logrus.Logger) {
	log.AddHook(&consoleHook{
		out:   os.Stdout,
		color: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	})
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(entry *logrus.Entry) error {
	lvl := h.levelTag(entry.Level)
	ts := entry.Time.Format(time.RFC3339)

	line := fmt.Sprintf("%s %s %s", ts, lvl, entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			line += fmt.Sprintf(" %s=%v", k, entry.Data[k])
		}
	}

	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *consoleHook) levelTag(lvl logrus.Level) string {
	tag := fmt.Sprintf("[%-5s]", lvl.String())

	if !h.color {
		return tag
	}

	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return color.New(color.FgHiWhite, color.BgRed).Sprint(tag)
	case logrus.ErrorLevel:
		return color.RedString(tag)
	case logrus.WarnLevel:
		return color.YellowString(tag)
	case logrus.InfoLevel:
		return color.CyanString(tag)
	case logrus.DebugLevel, logrus.TraceLevel:
		return color.New(color.Faint).Sprint(tag)
	default:
		return tag
	}
}
