/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// globalLogger discards everything until one of the Init functions runs.
var globalLogger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	globalLogger.Store(&nop)
}

func current() *zerolog.Logger {
	return globalLogger.Load()
}

func install(l zerolog.Logger) {
	globalLogger.Store(&l)
	log.Logger = l
}

func parseLevel(level string) zerolog.Level {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return logLevel
}

func rotatingWriter(logFile string, maxAge, maxSize, maxBackups int) (*lumberjack.Logger, error) {
	// Expand ~ to home directory if present
	if strings.HasPrefix(logFile, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		logFile = filepath.Join(homeDir, logFile[2:])
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, err
	}

	return &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize,    // MB
		MaxAge:     maxAge,     // days
		MaxBackups: maxBackups, // number of backups
		LocalTime:  true,
		Compress:   true,
	}, nil
}

// InitLogger sets up logging with file rotation and dual output (file + stdout)
func InitLogger(logFile string, level string, maxAge, maxSize, maxBackups int) error {
	fileWriter, err := rotatingWriter(logFile, maxAge, maxSize, maxBackups)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	multiWriter := io.MultiWriter(fileWriter, consoleWriter)

	install(zerolog.New(multiWriter).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger())
	return nil
}

// InitFile logs to the rotated file only, keeping the terminal free for the
// browser.
func InitFile(logFile string, level string, maxAge, maxSize, maxBackups int) error {
	fileWriter, err := rotatingWriter(logFile, maxAge, maxSize, maxBackups)
	if err != nil {
		return err
	}
	install(zerolog.New(fileWriter).Level(parseLevel(level)).With().Timestamp().Logger())
	return nil
}

// InitConsole logs to stderr only. CLI commands use it so their stdout stays
// clean for piping.
func InitConsole(level string) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	install(zerolog.New(consoleWriter).Level(parseLevel(level)).With().Timestamp().Logger())
}

// InitWriter sends plain JSON log lines to w.
func InitWriter(w io.Writer, level string) {
	install(zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger())
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}

// Fatal logs a fatal message and exits
func Fatal(format string, args ...interface{}) {
	current().Fatal().Msgf(format, args...)
}

// SetLevel changes the logging level. Unknown names fall back to info.
func SetLevel(level string) {
	install(current().Level(parseLevel(level)))
}

// GetLevel returns the active level name.
func GetLevel() string {
	return current().GetLevel().String()
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return *current()
}
