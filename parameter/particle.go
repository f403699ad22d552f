package parameter

// Sliver Pool
const (
	// SliverPoolCapacity is the number of slivers pre-allocated at startup
	SliverPoolCapacity = 512

	// SliverGravity is vertical acceleration in cells per frame²
	SliverGravity = 0.02

	// SliverGravityScales makes larger debris fall proportionally faster
	SliverGravityScales = true

	// SliverSpeedJitter is the ± fraction applied to launch speed; 0 keeps launches exact
	SliverSpeedJitter = 0.0

	// SliverSpread is the default launch half-angle in degrees
	SliverSpread = 180

	// SliverShadeCount is the preferred number of palette entries leased per sliver
	SliverShadeCount = 4

	// SliverAgeMin and SliverAgeMax bound the randomized frame life of a batch
	SliverAgeMin = 20
	SliverAgeMax = 45

	// SliverBatchCount is the number of slivers per explosion
	SliverBatchCount = 24
)

// Color Table
const (
	// PaletteSize is the total number of color table entries
	PaletteSize = 256

	// PaletteMasters is the number of entries reserved for object master colors
	PaletteMasters = 32

	// PaletteRampFloor is the brightness of the darkest shade in a leased ramp
	PaletteRampFloor = 0.2
)
