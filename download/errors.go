package download

import (
	"errors"
	"fmt"
)

var (
	// ErrSegmentDownload matches every *SegmentError.
	ErrSegmentDownload = errors.New("segment download failed")

	// ErrIO is returned when an output file can not be created, written or closed.
	ErrIO = errors.New("io error")

	// ErrDirectDownload is returned when a single-file download fails on the network side.
	ErrDirectDownload = errors.New("direct download failed")
)

// SegmentError reports the failure of the segment at Index, counting from zero.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("%s: segment #%d: %v", ErrSegmentDownload, e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

func (e *SegmentError) Is(target error) bool {
	return target == ErrSegmentDownload
}
