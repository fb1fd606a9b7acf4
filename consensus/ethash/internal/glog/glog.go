// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package glog is a small structured logger: named levels, key/value pairs,
// a terminal-aware color handler.
package glog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level orders severities from most to least urgent.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "?????"
	}
}

// color codes, used only when the output stream is a terminal.
const (
	colorRed    = 31
	colorYellow = 33
	colorCyan   = 36
	colorGray   = 90
)

func (l Level) color() int {
	switch l {
	case LevelError:
		return colorRed
	case LevelWarn:
		return colorYellow
	case LevelInfo:
		return colorCyan
	default:
		return colorGray
	}
}

// Logger is a minimal structured logger: Info/Debug/Warn/Error/Trace each
// take a message and an even number of key/value pairs.
type Logger struct {
	name string
}

// New returns a Logger tagged with the given component name, e.g.
// glog.New("ethash").
func New(name string) *Logger {
	return &Logger{name: name}
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	out      io.Writer
	colorize bool
)

func init() {
	out = colorable.NewColorableStdout()
	colorize = isatty.IsTerminal(os.Stdout.Fd())
}

// SetLevel adjusts the process-wide minimum level that gets written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

func (lg *Logger) log(level Level, msg string, kv ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level > minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("01-02|15:04:05.000"))
	b.WriteByte(' ')
	if colorize {
		fmt.Fprintf(&b, "\x1b[%dm%-5s\x1b[0m", level.color(), level)
	} else {
		fmt.Fprintf(&b, "%-5s", level)
	}
	fmt.Fprintf(&b, " [%s] %s", lg.name, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	b.WriteByte('\n')

	io.WriteString(out, b.String())
}

func (lg *Logger) Trace(msg string, kv ...interface{}) { lg.log(LevelTrace, msg, kv...) }
func (lg *Logger) Debug(msg string, kv ...interface{}) { lg.log(LevelDebug, msg, kv...) }
func (lg *Logger) Info(msg string, kv ...interface{})  { lg.log(LevelInfo, msg, kv...) }
func (lg *Logger) Warn(msg string, kv ...interface{})  { lg.log(LevelWarn, msg, kv...) }
func (lg *Logger) Error(msg string, kv ...interface{}) { lg.log(LevelError, msg, kv...) }
