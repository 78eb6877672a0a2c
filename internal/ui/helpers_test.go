package ui

import "io"

// newBlockingReader returns a reader whose Read blocks until the writer is closed
func newBlockingReader() (io.Reader, io.Closer) {
	r, w := io.Pipe()
	return r, w
}
