package utils

import (
	"context"
	"io"
)

// Close closes c and ignores any error. For deferred cleanup of response
// bodies and files where the close error carries nothing useful.
func Close(c io.Closer) {
	_ = c.Close()
}

// CancelOnClose ties a body to the context that produced it: closing the
// body also cancels the context, releasing the connection.
type CancelOnClose struct {
	io.ReadCloser
	Cancel context.CancelFunc
}

func (c *CancelOnClose) Close() error {
	if c.Cancel != nil {
		c.Cancel()
	}
	return c.ReadCloser.Close()
}
