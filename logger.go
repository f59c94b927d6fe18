/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cio

import (
	"bytes"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Log is every pipe's error sink (cache_pipe.go, storage_pipe.go,
// plugin_pipe.go, environment.go all call Log.Error directly). It starts
// out silently discarding everything and delegates to whatever sink
// SetLogger installs, so packages that import cio as a library can wire
// their own logr.Logger in before or after cio's own init runs.
//
// Adapted down from controller-runtime's log package: this module has no
// contextual/named child loggers anywhere (nothing calls Log.WithName or
// Log.WithValues), so the promise-forwarding machinery that lets a child
// logger obtained before SetLogger still get fulfilled later is dropped;
// WithName/WithValues here just delegate straight through.
func SetLogger(l logr.Logger) {
	logFulfilled.Store(true)
	rootLog.fulfill(l.GetSink())
}

func eventuallyFulfillRoot() {
	if logFulfilled.Load() {
		return
	}
	if time.Since(rootLogCreated).Seconds() < 30 {
		return
	}
	if !logFulfilled.CompareAndSwap(false, true) {
		return
	}
	stack := debug.Stack()
	stackLines := bytes.Count(stack, []byte{'\n'})
	sep := []byte{'\n', '\t', '>', ' ', ' '}
	fmt.Fprintf(os.Stderr,
		"cio.SetLogger(...) was never called; logs will not be displayed.\nDetected at:%s%s", sep,
		bytes.Replace(stack, []byte{'\n'}, sep, stackLines-1),
	)
	SetLogger(logr.New(nullLogSink{}))
}

var logFulfilled atomic.Bool

var (
	rootLog, rootLogCreated = newDelegatingLogSink(nullLogSink{}), time.Now()
	Log                     = logr.New(rootLog)
)

type nullLogSink struct{}

var _ logr.LogSink = nullLogSink{}

func (nullLogSink) Init(logr.RuntimeInfo)                    {}
func (nullLogSink) Info(_ int, _ string, _ ...interface{})   {}
func (nullLogSink) Error(_ error, _ string, _ ...interface{}) {}
func (nullLogSink) Enabled(_ int) bool                       { return false }
func (s nullLogSink) WithName(_ string) logr.LogSink         { return s }
func (s nullLogSink) WithValues(_ ...interface{}) logr.LogSink { return s }

// delegatingLogSink forwards every call to whatever sink is currently
// installed, so code can grab Log at package-init time and still pick up
// a sink that SetLogger installs later.
type delegatingLogSink struct {
	lock   sync.RWMutex
	logger logr.LogSink
}

func newDelegatingLogSink(initial logr.LogSink) *delegatingLogSink {
	return &delegatingLogSink{logger: initial}
}

func (l *delegatingLogSink) Init(info logr.RuntimeInfo) {
	eventuallyFulfillRoot()
	l.lock.Lock()
	defer l.lock.Unlock()
	l.logger.Init(info)
}

func (l *delegatingLogSink) Enabled(level int) bool {
	eventuallyFulfillRoot()
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.logger.Enabled(level)
}

func (l *delegatingLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	eventuallyFulfillRoot()
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Info(level, msg, keysAndValues...)
}

func (l *delegatingLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	eventuallyFulfillRoot()
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Error(err, msg, keysAndValues...)
}

func (l *delegatingLogSink) WithName(name string) logr.LogSink {
	eventuallyFulfillRoot()
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.logger.WithName(name)
}

func (l *delegatingLogSink) WithValues(tags ...interface{}) logr.LogSink {
	eventuallyFulfillRoot()
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.logger.WithValues(tags...)
}

func (l *delegatingLogSink) fulfill(actual logr.LogSink) {
	if actual == nil {
		actual = nullLogSink{}
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.logger = actual
}
