package parameter

import "time"

// Frame Loop
const (
	// FrameUpdateInterval is the frame interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond
)

// Spawn Queue
const (
	// SpawnQueueSize is the fixed capacity of the spawn request ring buffer
	SpawnQueueSize = 256

	// SpawnBufferMask is the bitmask for fast modulo operations (256 - 1)
	SpawnBufferMask = SpawnQueueSize - 1
)
