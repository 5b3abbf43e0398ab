/*
 * Copyright 2020 Brightgate Inc.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at https://mozilla.org/MPL/2.0/.
 */

// Package aplog builds the sugared zap logger ap-softapd and its helpers
// share, and a throttled-logger wrapper for redundant-message suppression.
// Adapted from ap_common/aputil/logging.go.
package aplog

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	atomicLevel = zap.NewAtomicLevel()
	daemonName  string
	tloggers    = make(map[string]*ThrottledLogger)
)

func zapTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006/01/02 15:04:05.000"))
}

func zapCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	dir, fileName := filepath.Split(caller.File)
	dir = filepath.Base(dir)
	if dir != daemonName {
		fileName = filepath.Join(dir, fileName)
	}
	enc.AppendString(fmt.Sprintf("%s:%s:%d", daemonName, fileName, caller.Line))
}

// New returns a 'sugared' zap logger tagged with the daemon name, the way
// aputil.NewLogger does for every ap.* daemon.
func New(name string) *zap.SugaredLogger {
	daemonName = name

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = atomicLevel
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapTimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapCallerEncoder

	logger, err := cfg.Build()
	if err != nil {
		log.Panicf("can't zap: %s", err)
	}
	_ = zap.RedirectStdLog(logger)
	return logger.Sugar()
}

// SetLevel adjusts verbosity at runtime, e.g. from a config-tree watch.
func SetLevel(level string) error {
	var l zapcore.Level
	if err := (&l).UnmarshalText([]byte(level)); err != nil {
		return err
	}
	atomicLevel.SetLevel(l)
	return nil
}

// ThrottledLogger rate-limits a single, redundant log site. Used for the
// startup pace-tracker's "refusing to retry" warning, the roster's
// duplicate-admission complaint, and the FSM's spurious-shutdown-timeout
// complaint.
type ThrottledLogger struct {
	slog      *zap.SugaredLogger
	next      time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	curDelay  time.Duration
}

func (t *ThrottledLogger) ready() bool {
	now := time.Now()
	if now.After(t.next) {
		t.next = now.Add(t.curDelay)
		t.curDelay *= 2
		if t.curDelay > t.maxDelay {
			t.curDelay = t.maxDelay
		}
		return true
	}
	return false
}

// Warnf issues a WARN message if the throttle window has elapsed.
func (t *ThrottledLogger) Warnf(format string, a ...interface{}) {
	if t.ready() {
		t.slog.Warnf(format, a...)
	}
}

// Errorf issues an ERROR message if the throttle window has elapsed.
func (t *ThrottledLogger) Errorf(format string, a ...interface{}) {
	if t.ready() {
		t.slog.Errorf(format, a...)
	}
}

// GetThrottledLogger returns a throttled logger persistent and unique to the
// call site, allocating one on first use.
func GetThrottledLogger(slog *zap.SugaredLogger, start, max time.Duration) *ThrottledLogger {
	var key string
	if _, file, line, ok := runtime.Caller(1); ok {
		key = file + ":" + strconv.Itoa(line)
	} else {
		key = "unknown"
	}

	t, ok := tloggers[key]
	if !ok {
		t = &ThrottledLogger{
			slog:      slog.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar(),
			next:      time.Now(),
			baseDelay: start,
			curDelay:  start,
			maxDelay:  max,
		}
		tloggers[key] = t
	}
	return t
}
