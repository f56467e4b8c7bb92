package png

import (
	"errors"
	"fmt"
)

// Engine error types
var (
	ErrInvalidSignature = fmt.Errorf("invalid png signature")
	ErrMalformedChunk   = fmt.Errorf("malformed chunk")
	ErrInvalidChunkType = fmt.Errorf("invalid chunk type")
	ErrChunkNotFound    = fmt.Errorf("chunk not found")
	ErrInvalidEncoding  = fmt.Errorf("invalid encoding")
)

// IsMalformed checks if an error is a malformed chunk error
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedChunk)
}

// IsNotFound checks if an error is a chunk not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChunkNotFound)
}
