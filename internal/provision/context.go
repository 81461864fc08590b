package provision

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/derekmerck/tangl-go/internal/graph"
)

// ProvisioningContext carries the state a collection/selection pass
// needs: the graph being provisioned against, the cursor step it runs
// under, and which requirement/source is currently active (consulted
// by GraphProvisioner's proximity scoring). RNG is deterministic,
// seeded from RNGSeed if set, else from Step, so a planning pass can
// be replayed byte-for-byte from a recorded step number.
type ProvisioningContext struct {
	Graph   *graph.Graph
	Ctx     context.Context
	Step    int64
	RNGSeed int64

	CurrentRequirementID       uuid.UUID
	CurrentRequirementSourceID uuid.UUID

	rng *rand.Rand
}

// NewProvisioningContext constructs a context seeded deterministically
// from rngSeed, falling back to step when rngSeed is zero.
func NewProvisioningContext(g *graph.Graph, step int64, rngSeed int64) *ProvisioningContext {
	seed := rngSeed
	if seed == 0 {
		seed = step
	}
	return &ProvisioningContext{
		Graph:   g,
		Ctx:     context.Background(),
		Step:    step,
		RNGSeed: rngSeed,
		rng:     rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

// Rand returns the context's deterministic random source.
func (c *ProvisioningContext) Rand() *rand.Rand { return c.rng }
