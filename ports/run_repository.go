package ports

import (
	"context"

	"dendrosim/domain/core"
	"dendrosim/domain/simulation"
)

// RunRepository archives completed simulation runs. The archive is
// write-only from the simulation's point of view: no run ever reads prior
// results back in.
type RunRepository interface {
	SaveRun(ctx context.Context, run *simulation.Run) error
	GetRun(ctx context.Context, id core.RunID) (*simulation.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*simulation.Run, error)
}
