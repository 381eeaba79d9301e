//
// Corvid - a UCI-compatible chess engine written in Go
//
// MIT License
//
// Copyright (c) 2020-2026 Corvid Engine Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

package config

// logConfiguration holds the configuration for all loggers used by the engine.
type logConfiguration struct {
	LogPath        string
	SearchLogPath  string
	LogLevel       string
	SearchLogLevel string
	TestLogLevel   string
}

// LogLevels maps human readable log level names (as used on the command line
// and in the config file) to the numeric levels used by go-logging.
// 0=Critical 1=Error 2=Warning 3=Notice 4=Info 5=Debug
var LogLevels = map[string]int{
	"critical": 0,
	"error":    1,
	"warning":  2,
	"notice":   3,
	"info":     4,
	"debug":    5,
}

// sets defaults which might be overwritten by config file.
func init() {
	Settings.Log.LogPath = "./logs"
	Settings.Log.SearchLogPath = "./logs"
	Settings.Log.LogLevel = "info"
	Settings.Log.SearchLogLevel = "info"
	Settings.Log.TestLogLevel = "info"
}

// setupLogLvl applies the log levels from the configuration file (if any)
// on top of the compiled-in defaults. Command line options are applied
// afterwards in main() and take precedence.
func setupLogLvl() {
	if lvl, found := LogLevels[Settings.Log.LogLevel]; found {
		LogLevel = lvl
	}
	if lvl, found := LogLevels[Settings.Log.SearchLogLevel]; found {
		SearchLogLevel = lvl
	}
	if lvl, found := LogLevels[Settings.Log.TestLogLevel]; found {
		TestLogLevel = lvl
	}
}
