package utils

import (
	"bytes"
	"sync"
)

const (
	// TooBigBlockSize bounds what is returned to the pool; parameter buffers
	// that grew past this are left for the GC.
	TooBigBlockSize = 1024 * 1024 * 4
)

var bytesBufferPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// BytesBufferGet rents a reset buffer from the allocator. Callers must return
// it with BytesBufferPut once the wire write completed or failed.
func BytesBufferGet() *bytes.Buffer {
	data := bytesBufferPool.Get().(*bytes.Buffer)
	data.Reset()
	return data
}

func BytesBufferPut(data *bytes.Buffer) {
	if data == nil || data.Len() > TooBigBlockSize {
		return
	}

	bytesBufferPool.Put(data)
}
