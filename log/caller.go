package log

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Caller identifies the source location that produced a log event.
type Caller struct {
	File     string
	Function string
	Line     int
	info     string
}

var _unknownCaller = &Caller{
	File:     "unknown",
	Function: "unknown",
	info:     "unknown:0 unknown",
}

func newCaller(file string, function string, line int) *Caller {
	return &Caller{
		File:     file,
		Function: function,
		Line:     line,
		info:     file + ":" + strconv.Itoa(line) + " " + function,
	}
}

func (c *Caller) String() string {
	return c.info
}

// callerCache memoizes resolved program counters; the same call site is hit
// over and over in a running service.
var callerCache sync.Map

// captureCaller resolves the caller skip frames above its own caller.
// The file path is shortened to its last directory and base name.
func captureCaller(skip int) *Caller {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return _unknownCaller
	}

	if cached, found := callerCache.Load(pc); found {
		return cached.(*Caller)
	}

	var function string
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if dotIdx := strings.LastIndexByte(function, '.'); dotIdx != -1 {
			function = function[dotIdx+1:]
		}
	}

	if lastSlash := strings.LastIndexByte(file, '/'); lastSlash > 0 {
		if secondLastSlash := strings.LastIndexByte(file[:lastSlash], '/'); secondLastSlash >= 0 {
			file = file[secondLastSlash+1:]
		}
	}

	c := newCaller(file, function, line)
	callerCache.Store(pc, c)
	return c
}
