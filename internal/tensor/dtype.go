// Package tensor provides the core tensor types for the Weft expression-graph
// framework: the fixed-rank Shape with its broadcasting/reduction rules, and
// the Tensor buffer with its owning and aliasing storage modes.
package tensor

// DataType represents runtime type information for tensor elements.
type DataType int

// Supported element types. Float32 is the compute type; Float16 exists as a
// storage type reachable through the backend Cast kernel.
const (
	Float32 DataType = iota
	Float16
	Int32
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}
