/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the ethsw command line
package cli

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context is handed to every command's Run
type Context struct {
	// Config is the path of the system configuration file
	Config string

	// Verbose raises the log verbosity; each level enables one more V() level
	Verbose int

	// Debug is shorthand for a verbosity of one
	Debug bool

	// Out receives command output
	Out io.Writer

	log *logr.Logger
}

// Log returns the context's logger, building it on first use. Console output
// is used on a terminal and JSON otherwise.
func (ctx *Context) Log() logr.Logger {
	if ctx.log == nil {
		log := NewLogger(os.Stderr, ctx.verbosity(), isatty.IsTerminal(os.Stderr.Fd()))
		ctx.log = &log
	}

	return *ctx.log
}

func (ctx *Context) verbosity() int {
	if ctx.Verbose == 0 && ctx.Debug {
		return 1
	}

	return ctx.Verbose
}

func (ctx *Context) out() io.Writer {
	if ctx.Out == nil {
		return os.Stdout
	}

	return ctx.Out
}

// NewLogger creates a zap backed logger writing to w. Logs at V(n) are
// written when n <= verbosity.
func NewLogger(w io.Writer, verbosity int, console bool) logr.Logger {
	var encoder zapcore.Encoder
	if console {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	level := zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zapr.NewLogger(zap.New(core))
}
