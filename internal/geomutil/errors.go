package geomutil

import "errors"

// ErrQuantizationOverflow indicates a position lies outside the AABB it is
// being quantized against by more than one least-significant-bit step —
// per spec.md §7, this is fatal and indicates a tiler bug, never a
// legitimate rounding slip.
var ErrQuantizationOverflow = errors.New("geomutil: quantization overflow")
