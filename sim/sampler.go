package sim

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jorconnor/qphase/circuit"
)

// DefaultShots is used when SamplingBackend.Shots is zero.
const DefaultShots = 1024

// batchSize is the number of shots a worker draws between context checks.
const batchSize = 256

// SamplingBackend simulates a circuit and samples its terminal measurements.
type SamplingBackend struct {
	// Shots is the number of samples drawn. Defaults to DefaultShots.
	Shots int
	// Seed seeds the sampler. Runs with equal Seed, Shots and Workers give
	// equal counts.
	Seed uint64
	// Workers is the number of goroutines drawing samples. Defaults to 1.
	Workers int
}

func (SamplingBackend) Name() string        { return "sampler" }
func (SamplingBackend) IsStatevector() bool { return false }

func (b SamplingBackend) Run(ctx context.Context, c *circuit.Circuit) (Result, error) {
	start := time.Now()
	shots := b.Shots
	if shots == 0 {
		shots = DefaultShots
	}
	if shots < 0 {
		return nil, fmt.Errorf("sampler: shots must be positive, got %d", shots)
	}

	clbits, err := measurements(c)
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	if len(clbits) == 0 {
		return nil, fmt.Errorf("sampler: %w", ErrNoMeasurements)
	}
	state, err := simulate(ctx, c)
	if err != nil {
		return nil, err
	}

	var qubits []int
	for _, q := range clbits {
		if !slices.Contains(qubits, q) {
			qubits = append(qubits, q)
		}
	}
	slices.Sort(qubits)
	outcomes, err := b.sample(ctx, state.MarginalProbabilities(qubits), shots)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(outcomes))
	for outcome, n := range outcomes {
		counts[bitstring(outcome, qubits, clbits, c.NumClbits)] += n
	}
	return &Samples{
		runInfo:     runInfo{backend: b.Name(), elapsed: time.Since(start)},
		Counts:      counts,
		Shots:       shots,
		MemorySlots: c.NumClbits,
	}, nil
}

// sample draws shots outcomes from probs, splitting the work between
// b.Workers goroutines, each seeded from b.Seed and its worker index.
func (b SamplingBackend) sample(ctx context.Context, probs []float64, shots int) (map[int]int, error) {
	workers := max(b.Workers, 1)
	workers = min(workers, shots)

	perWorker := make([]map[int]int, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		n := shots / workers
		if w < shots%workers {
			n++
		}
		g.Go(func() error {
			dist := distuv.NewCategorical(probs, rand.NewSource(b.Seed+uint64(w)))
			counts := make(map[int]int)
			for drawn := 0; drawn < n; drawn++ {
				if drawn%batchSize == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				counts[int(dist.Rand())]++
			}
			perWorker[w] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := make(map[int]int)
	for _, counts := range perWorker {
		for outcome, n := range counts {
			total[outcome] += n
		}
	}
	return total, nil
}

// bitstring renders a marginal outcome over qubits as a classical register
// value of numClbits bits, classical bit 0 rightmost.
func bitstring(outcome int, qubits []int, clbits map[int]int, numClbits int) string {
	bits := []byte(strings.Repeat("0", numClbits))
	for clbit, q := range clbits {
		k := slices.Index(qubits, q)
		if outcome&(1<<k) != 0 {
			bits[numClbits-1-clbit] = '1'
		}
	}
	return string(bits)
}
