package utils

import (
	"bytes"
	"sync"
)

// maxPooledBufferSize is the maximum buffer size to return to pool.
// Buffers larger than this are discarded to prevent memory bloat.
const maxPooledBufferSize = 64 * 1024 // 64KB

// BufferPool manages a pool of bytes.Buffer to reduce garbage collection
// overhead on the per-request body read path.
var BufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool.
func GetBuffer() *bytes.Buffer {
	return BufferPool.Get().(*bytes.Buffer)
}

// PutBuffer resets the buffer and returns it to the pool.
// Buffers larger than 64KB are not returned to avoid memory bloat.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	BufferPool.Put(buf)
}
