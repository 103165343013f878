package ports

import (
	"dendrosim/domain/series"
)

// ClimateReaderPort loads the standardized, detrended year-by-month climate
// matrix the simulation consumes. Detrending and standardization are the
// data supplier's responsibility, not the simulator's.
type ClimateReaderPort interface {
	ReadMatrix() (*series.Matrix, error)
}
