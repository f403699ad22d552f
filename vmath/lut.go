package vmath

import (
	"math"
)

func init() {
	for i := 0; i < LUTSize; i++ {
		rad := 2.0 * math.Pi * float64(i) / LUTSize
		SinLUT[i] = int64(math.Round(math.Sin(rad) * ScaleF))
		CosLUT[i] = int64(math.Round(math.Cos(rad) * ScaleF))
	}
}

// SinLUT and CosLUT scaled by Q32.32, one full turn over LUTSize entries
var (
	SinLUT [LUTSize]int64
	CosLUT [LUTSize]int64
)
