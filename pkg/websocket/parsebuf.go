package websocket

import "sync"

// parseBufferSize is large enough to hold a full batch of orderbook deltas
// without growing; Polymarket's market channel rarely exceeds a few KiB per
// frame even during a busy resolution event.
const parseBufferSize = 64 * 1024

var parseBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, parseBufferSize)
		return &buf
	},
}

// getParseBuffer returns a zero-length, pooled []byte with spare capacity
// so readLoop's frame-read path does not allocate a fresh backing array
// per WebSocket message under steady-state load.
func getParseBuffer() *[]byte {
	buf := parseBufferPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	return buf
}

func putParseBuffer(buf *[]byte) {
	if cap(*buf) > parseBufferSize*4 {
		// Don't let one oversized frame keep a huge buffer pinned in the pool.
		return
	}
	parseBufferPool.Put(buf)
}
