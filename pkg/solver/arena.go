// Package solver implements the numerical constraint solver: a
// non-relocating parameter arena, a constraint builder over
// mechlink-go/pkg/joint, and a BFGS-family minimizer driver.
package solver

// blockSize is the arena's per-block parameter count. Chosen well
// above any mechanism this engine expects to see in one pass, so most
// solves never allocate a second block.
const blockSize = 256

// ParamID addresses one float64 slot in an Arena. It survives further
// Allocs on the same arena: unlike append-and-reslice, growing an
// Arena never moves an already-allocated slot, mirroring the
// fixed-size-bucket discipline of pkg/pool but promoted from a GC
// optimization to a correctness requirement — constraints capture
// ParamIDs once, during system construction, and the arena must never
// invalidate them mid-solve.
type ParamID int

// Arena is an append-only pool of float64 parameters.
type Arena struct {
	blocks [][]float64
	count  int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) ensureBlock(idx int) {
	for idx >= len(a.blocks) {
		a.blocks = append(a.blocks, make([]float64, blockSize))
	}
}

// Alloc reserves a new parameter initialized to v and returns its ID.
func (a *Arena) Alloc(v float64) ParamID {
	blockIdx := a.count / blockSize
	a.ensureBlock(blockIdx)
	a.blocks[blockIdx][a.count%blockSize] = v
	id := ParamID(a.count)
	a.count++
	return id
}

// Get returns the current value of id.
func (a *Arena) Get(id ParamID) float64 {
	return a.blocks[int(id)/blockSize][int(id)%blockSize]
}

// Set overwrites the value of id.
func (a *Arena) Set(id ParamID, v float64) {
	a.blocks[int(id)/blockSize][int(id)%blockSize] = v
}

// Len returns the number of allocated parameters.
func (a *Arena) Len() int { return a.count }

// Snapshot copies every live parameter into a flat slice, in
// allocation order, for handoff to the optimizer.
func (a *Arena) Snapshot() []float64 {
	out := make([]float64, a.count)
	for i := 0; i < a.count; i++ {
		out[i] = a.Get(ParamID(i))
	}
	return out
}

// LoadFrom overwrites every parameter from a flat slice produced by an
// earlier Snapshot (or the optimizer's working vector).
func (a *Arena) LoadFrom(x []float64) {
	for i, v := range x {
		if i >= a.count {
			break
		}
		a.Set(ParamID(i), v)
	}
}
