package compaction

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
)

// ComponentsPerVertex is the number of scalars stored per vertex in every vertex and UV buffer.
const ComponentsPerVertex = 4

// ErrSourceRange is returned when a descriptor addresses vertices beyond the end of its source buffer.
var ErrSourceRange = errors.New("compaction: source range out of bounds")

// Sources are the buffers a descriptor can read from, four scalars per vertex.
type Sources struct {
	SceneVertices []int32
	TempVertices  []int32
	SceneUVs      []float32
	TempUVs       []float32
}

func (s Sources) vertices(d classifier.DrawDescriptor) []int32 {
	if d.Flags.SceneBuffer {
		return s.SceneVertices
	}
	return s.TempVertices
}

func (s Sources) uvs(d classifier.DrawDescriptor) []float32 {
	if d.Flags.SceneBuffer {
		return s.SceneUVs
	}
	return s.TempUVs
}

// Output is the compacted vertex stream.
type Output struct {
	Vertices []int32
	UVs      []float32
}

// NewOutput allocates an output stream holding vertexCount vertices.
func NewOutput(vertexCount int) Output {
	return Output{
		Vertices: make([]int32, vertexCount*ComponentsPerVertex),
		UVs:      make([]float32, vertexCount*ComponentsPerVertex),
	}
}

// VertexCount returns the number of vertices the output can hold.
func (o Output) VertexCount() int {
	return len(o.Vertices) / ComponentsPerVertex
}

// Compact runs the compaction pass on the CPU. Each vertex is rotated about the Y axis by the descriptor's
// orientation, translated by its position and stored at TargetOffset + face*3 + j. Writes at or past the end
// of out are dropped, and a descriptor stops at its first dropped write, as on the GPU.
//
// Parameters:
//   - descriptors: the descriptors of one bucket
//   - src: the source buffers
//   - out: the output stream
//
// Returns:
//   - int: the number of vertices written
//   - error: ErrSourceRange when a descriptor reads past its source buffer
func Compact(descriptors []classifier.DrawDescriptor, src Sources, out Output) (int, error) {
	limit := out.VertexCount()
	written := 0
	for i, d := range descriptors {
		n, err := compactOne(d, src, out, limit)
		written += n
		if err != nil {
			return written, fmt.Errorf("descriptor %d: %w", i, err)
		}
	}
	return written, nil
}

func compactOne(d classifier.DrawDescriptor, src Sources, out Output, limit int) (int, error) {
	vertices := src.vertices(d)
	uvs := src.uvs(d)
	sin := common.Sine[common.AngleIndex(int(d.Flags.Orientation))]
	cos := common.Cosine[common.AngleIndex(int(d.Flags.Orientation))]

	written := 0
	for v := range d.VertexCount() {
		dst := int(d.TargetOffset) + v
		if dst >= limit {
			return written, nil
		}
		s := (int(d.VertexOffset) + v) * ComponentsPerVertex
		if s < 0 || s+ComponentsPerVertex > len(vertices) {
			return written, fmt.Errorf("%w: vertex %d of %d", ErrSourceRange, s/ComponentsPerVertex, len(vertices)/ComponentsPerVertex)
		}
		x, y, z, w := vertices[s], vertices[s+1], vertices[s+2], vertices[s+3]
		o := dst * ComponentsPerVertex
		out.Vertices[o] = (z*sin+x*cos)>>16 + d.X
		out.Vertices[o+1] = y + d.Y
		out.Vertices[o+2] = (z*cos-x*sin)>>16 + d.Z
		out.Vertices[o+3] = w

		if !d.HasUV() {
			clear(out.UVs[o : o+ComponentsPerVertex])
		} else {
			u := (int(d.UVOffset) + v) * ComponentsPerVertex
			if u+ComponentsPerVertex > len(uvs) {
				return written, fmt.Errorf("%w: uv %d of %d", ErrSourceRange, u/ComponentsPerVertex, len(uvs)/ComponentsPerVertex)
			}
			copy(out.UVs[o:o+ComponentsPerVertex], uvs[u:u+ComponentsPerVertex])
		}
		written++
	}
	return written, nil
}
