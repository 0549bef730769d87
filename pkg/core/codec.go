package core

import (
	"bytes"
	"encoding/hex"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

var bufferPool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

// --- Compression ---

func Compress(src []byte) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	zw := lz4.NewWriter(buf)
	zw.Write(src)
	zw.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func Decompress(src []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	zr := lz4.NewReader(bytes.NewReader(src))
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// --- Hashing ---

func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChainHash folds a payload onto the previous link of a hash chain. The same
// (prev, payload) pair always yields the same link, so chains are verifiable
// by replay.
func ChainHash(prev string, payload []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(prev))
	h.Write(payload)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
