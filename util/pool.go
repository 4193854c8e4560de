package util

import "sync"

// bufPool holds relay buffers so a long client session does not
// allocate a fresh 32 KiB slice per copy direction.
var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf takes a buffer from the pool.  Return it with [PutBuf].
func GetBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

// PutBuf hands buf back to the pool.  A nil buf is ignored.
func PutBuf(buf *[]byte) {
	if buf != nil {
		bufPool.Put(buf)
	}
}
