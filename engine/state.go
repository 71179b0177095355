package engine

// State is the frame orchestrator's position in the frame sequence.
type State int32

const (
	// StateUninitialized is the state before Start and after Stop.
	StateUninitialized State = iota
	// StateReady waits for the next frame's DrawScene.
	StateReady
	// StateClassifying collects the frame's drawables into buckets.
	StateClassifying
	// StateUploading copies the frame's buffers to the GPU.
	StateUploading
	// StateCompacting runs the three compaction dispatches.
	StateCompacting
	// StateDrawing draws the compacted scene into the scene target.
	StateDrawing
	// StateCompositing draws the scene target and the UI layer onto the surface.
	StateCompositing
	// StateDisabled is terminal. The engine hit a fatal error and no longer draws.
	StateDisabled
)

var stateNames = [...]string{
	"uninitialized",
	"ready",
	"classifying",
	"uploading",
	"compacting",
	"drawing",
	"compositing",
	"disabled",
}

// String returns the lower-case name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// running reports whether the engine accepts frame callbacks in this state.
func (s State) running() bool {
	return s != StateUninitialized && s != StateDisabled
}
