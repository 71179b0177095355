// Package compaction describes the three compute passes that scatter every classified drawable into one
// contiguous output vertex stream, and provides a CPU rendition of the same pass.
package compaction

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
)

// MaxDispatch is the largest workgroup count allowed in one dispatch dimension.
const MaxDispatch = 65535

// WorkgroupSizeDefine is the loader define that specializes the compaction template.
const WorkgroupSizeDefine = "WORKGROUP_SIZE"

// Stage is one instantiation of the compaction program. The three stages share a single WGSL template and
// differ only in their bucket, and therefore in their descriptor list and workgroup size.
type Stage struct {
	// Bucket is the classification bucket whose descriptors this stage consumes.
	Bucket classifier.Bucket
	// Label names the stage in logs and GPU debug labels.
	Label string
	// PipelineKey is the renderer key of the stage's compute pipeline.
	PipelineKey string
	// WorkgroupSize is the number of threads that stride over one descriptor's faces.
	WorkgroupSize int
}

var stages = [classifier.BucketCount]Stage{
	newStage(classifier.Unordered, 64),
	newStage(classifier.Small, 128),
	newStage(classifier.Large, 256),
}

func newStage(bucket classifier.Bucket, workgroupSize int) Stage {
	return Stage{
		Bucket:        bucket,
		Label:         bucket.String(),
		PipelineKey:   "compact-" + bucket.String(),
		WorkgroupSize: workgroupSize,
	}
}

// Stages returns the compaction stages in dispatch order: Unordered, Small, Large.
//
// Returns:
//   - [classifier.BucketCount]Stage: the three stages
func Stages() [classifier.BucketCount]Stage {
	return stages
}

// StageFor returns the stage that compacts bucket b.
func StageFor(b classifier.Bucket) Stage {
	return stages[b]
}

// Defines returns the loader defines that specialize the compaction template for this stage.
//
// Returns:
//   - map[string]string: the per-stage defines
func (s Stage) Defines() map[string]string {
	return map[string]string{WorkgroupSizeDefine: strconv.Itoa(s.WorkgroupSize)}
}

// LoadShader loads and reflects the compaction program specialized for this stage.
//
// Parameters:
//   - l: the shader source loader
//
// Returns:
//   - shader.Shader: the reflected compute shader
//   - error: a loader error or a *shader.BuildError
func (s Stage) LoadShader(l shader.Loader) (shader.Shader, error) {
	return shader.LoadShader(l, s.PipelineKey, shader.ShaderTypeCompute, shader.CompactSource, s.Defines())
}

// DispatchSize returns the workgroup grid for n descriptors. Counts above MaxDispatch spill into Y; the
// shader discards the padding groups of the last row.
//
// Parameters:
//   - n: the number of descriptors
//
// Returns:
//   - x, y: the grid dimensions, both zero when n is not positive
func DispatchSize(n int) (x, y uint32) {
	if n <= 0 {
		return 0, 0
	}
	return uint32(min(n, MaxDispatch)), uint32((n + MaxDispatch - 1) / MaxDispatch)
}
