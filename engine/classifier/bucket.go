package classifier

// Bucket is one of the three classification groups, each compacted by its own compute dispatch.
type Bucket int

const (
	// Unordered holds scene-resident tile paint and tile model geometry.
	Unordered Bucket = iota
	// Small holds models with fewer than SmallTriangleCount triangles.
	Small
	// Large holds models with SmallTriangleCount up to MaxTriangles triangles.
	Large
)

// BucketCount is the number of buckets.
const BucketCount = 3

const (
	// SmallTriangleCount is the triangle count from which a model is classified Large.
	SmallTriangleCount = 512
	// MaxTriangles is the hard cap on the triangles drawn for one model.
	MaxTriangles = 4096
)

// Buckets lists every bucket in dispatch order.
var Buckets = [BucketCount]Bucket{Unordered, Small, Large}

// BucketFor returns the bucket for a non-resident model with the given triangle count.
//
// Parameters:
//   - triangles: the model's clamped triangle count
//
// Returns:
//   - Bucket: Small below SmallTriangleCount, Large otherwise
func BucketFor(triangles int) Bucket {
	if triangles < SmallTriangleCount {
		return Small
	}
	return Large
}

// String returns the lower-case bucket name.
func (b Bucket) String() string {
	switch b {
	case Unordered:
		return "unordered"
	case Small:
		return "small"
	case Large:
		return "large"
	default:
		return "unknown"
	}
}
