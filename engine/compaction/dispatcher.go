package compaction

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/bind_group_provider"
)

// ComputeEncoder records compute dispatches into the current compute pass.
type ComputeEncoder interface {
	// DispatchCompute records one dispatch of a registered compute pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//   - bindGroups: the providers whose bind groups are set, indexed by group number
	//   - x, y, z: the workgroup grid
	//
	// Returns:
	//   - error: an error if the pipeline is unknown
	DispatchCompute(key string, bindGroups []bind_group_provider.BindGroupProvider, x, y, z uint32) error
}

// Bindings are the bind groups of one frame's compaction: the shared camera group and one group per bucket.
type Bindings struct {
	Camera  bind_group_provider.BindGroupProvider
	Buckets [classifier.BucketCount]bind_group_provider.BindGroupProvider
}

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	stages [classifier.BucketCount]Stage
}

// Dispatcher records the three compaction stages of a frame.
type Dispatcher interface {
	// Encode records one dispatch per non-empty bucket, in stage order.
	//
	// Parameters:
	//   - enc: the compute encoder of the current frame
	//   - bindings: the frame's bind groups
	//   - counts: the descriptor count of each bucket
	//
	// Returns:
	//   - int: the number of dispatches recorded
	//   - error: the first encoder error, wrapped with the stage label
	Encode(enc ComputeEncoder, bindings Bindings, counts [classifier.BucketCount]int) (int, error)

	// Stages returns the stages the dispatcher records.
	Stages() [classifier.BucketCount]Stage
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher over the default stages.
func NewDispatcher() Dispatcher {
	return &dispatcher{stages: Stages()}
}

func (d *dispatcher) Encode(enc ComputeEncoder, bindings Bindings, counts [classifier.BucketCount]int) (int, error) {
	dispatched := 0
	for _, s := range d.stages {
		x, y := DispatchSize(counts[s.Bucket])
		if x == 0 {
			continue
		}
		groups := []bind_group_provider.BindGroupProvider{bindings.Camera, bindings.Buckets[s.Bucket]}
		if err := enc.DispatchCompute(s.PipelineKey, groups, x, y, 1); err != nil {
			return dispatched, fmt.Errorf("compact %s: %w", s.Label, err)
		}
		dispatched++
	}
	return dispatched, nil
}

func (d *dispatcher) Stages() [classifier.BucketCount]Stage {
	return d.stages
}
