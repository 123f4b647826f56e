package audio

// Chunk splits buf into consecutive pieces of at most size bytes.
// The last piece may be shorter; concatenating the pieces yields buf
// exactly. Returns nil for an empty buffer.
func Chunk(buf []byte, size int) [][]byte {
	if len(buf) == 0 || size <= 0 {
		return nil
	}
	chunks := make([][]byte, 0, (len(buf)+size-1)/size)
	for start := 0; start < len(buf); start += size {
		end := start + size
		if end > len(buf) {
			end = len(buf)
		}
		chunks = append(chunks, buf[start:end])
	}
	return chunks
}
