package pack

import "errors"

// Sentinel error kinds per spec.md §7, wrapped with fmt.Errorf("...: %w", ...)
// at the call site, the same pattern the teacher uses for its PDU errors.
var (
	// ErrFormatVersionMismatch is returned by Decode when an envelope's
	// FormatVersion does not match the version this package writes.
	ErrFormatVersionMismatch = errors.New("pack: format version mismatch")

	// ErrCodec wraps a failure from the per-stream compressor/decompressor.
	ErrCodec = errors.New("pack: codec error")

	// ErrTruncatedStream is returned when a stream's decompressed byte
	// count is not a whole multiple of its record size.
	ErrTruncatedStream = errors.New("pack: truncated stream")
)
