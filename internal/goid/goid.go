// Package goid exposes the runtime identifier of the calling goroutine.
//
// The identifier is only used for ownership checks (detecting that an
// operation runs on the goroutine that created a resource). It must not
// be used for goroutine-local storage.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

const stackPrefix = "goroutine "

// ID returns the runtime identifier of the calling goroutine.
//
// The identifier is parsed from the first line of the goroutine's stack
// trace ("goroutine N [running]:"). The runtime has printed this header
// unchanged since Go 1.0.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]

	header = bytes.TrimPrefix(header, []byte(stackPrefix))
	end := bytes.IndexByte(header, ' ')
	if end < 0 {
		panic("goid: malformed stack header: " + string(buf[:n]))
	}

	id, err := strconv.ParseUint(string(header[:end]), 10, 64)
	if err != nil {
		panic("goid: malformed goroutine id: " + err.Error())
	}
	return id
}
