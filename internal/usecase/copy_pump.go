package usecase

import (
	"errors"
	"fmt"
	"io"
)

const defaultCopyChunkSize = 32 * 1024

// pumpBytes streams src into dst in chunkSize reads and reports how many
// bytes were written.
func pumpBytes(src io.Reader, dst io.Writer, chunkSize int) (int64, error) {
	if chunkSize < 512 {
		chunkSize = defaultCopyChunkSize
	}

	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			written, writeErr := dst.Write(buf[:n])
			total += int64(written)
			if writeErr != nil {
				return total, fmt.Errorf("failed to write recording: %w", writeErr)
			}
			if written < n {
				return total, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, fmt.Errorf("failed to read recording: %w", err)
		}
	}
}
