// Package simulator implements the jump/diffusion price process that drives
// every synthetic stock. It is pure apart from the injected RandomSource, so
// a seeded source reproduces the same price path.
package simulator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// MinPrice is the floor applied to every simulated price.
const MinPrice = 0.01

// DefaultJumpUpProbability is the chance that a jump moves the price upward.
const DefaultJumpUpProbability = 0.6

var ErrInvalidParams = errors.New("invalid simulation parameters")

// RandomSource yields uniform floats in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Params are the per-stock parameters of the process.
// PriceCap <= 0 means no cap.
type Params struct {
	Volatility        float64
	JumpProbability   float64
	MaxJumpMultiplier float64
	PriceCap          float64
}

// Validate checks the ranges accepted by Next.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.Volatility) || p.Volatility < 0 || p.Volatility >= 1:
		return fmt.Errorf("%w: volatility must be in [0, 1), got %v", ErrInvalidParams, p.Volatility)
	case math.IsNaN(p.JumpProbability) || p.JumpProbability < 0 || p.JumpProbability > 1:
		return fmt.Errorf("%w: jump probability must be in [0, 1], got %v", ErrInvalidParams, p.JumpProbability)
	case math.IsNaN(p.MaxJumpMultiplier) || p.MaxJumpMultiplier < 1:
		return fmt.Errorf("%w: max jump multiplier must be >= 1, got %v", ErrInvalidParams, p.MaxJumpMultiplier)
	case p.PriceCap > 0 && p.PriceCap < MinPrice:
		return fmt.Errorf("%w: price cap must be >= %v, got %v", ErrInvalidParams, MinPrice, p.PriceCap)
	}
	return nil
}

// Step is the outcome of one simulator step.
// JumpPercentage is signed and only meaningful when WasJump is true.
type Step struct {
	Price          float64
	WasJump        bool
	JumpPercentage float64
}

// Simulator draws successive prices from a RandomSource.
// It is safe for concurrent use.
type Simulator struct {
	mu                sync.Mutex
	rnd               RandomSource
	jumpUpProbability float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithJumpUpProbability sets the probability that a jump is upward.
// Values outside [0, 1] are ignored.
func WithJumpUpProbability(p float64) Option {
	return func(s *Simulator) {
		if p >= 0 && p <= 1 {
			s.jumpUpProbability = p
		}
	}
}

// New returns a Simulator that draws from rnd.
func New(rnd RandomSource, opts ...Option) *Simulator {
	s := &Simulator{rnd: rnd, jumpUpProbability: DefaultJumpUpProbability}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSource returns a RandomSource seeded with seed.
func NewSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Next computes the next price from current.
//
// With probability JumpProbability the step is a jump: the direction is up
// with the configured bias and the size is 1 + r*(MaxJumpMultiplier-1).
// Otherwise the price moves by a uniform relative change in
// [-Volatility, +Volatility]. The result is clamped to [MinPrice, PriceCap].
//
// Draw order is fixed: one draw for the jump decision, then two draws
// (direction, magnitude) for a jump or one draw for a diffusive move.
func (s *Simulator) Next(current float64, p Params) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	var step Step
	if s.rnd.Float64() < p.JumpProbability {
		direction := -1.0
		if s.rnd.Float64() < s.jumpUpProbability {
			direction = 1.0
		}
		magnitude := 1 + s.rnd.Float64()*(p.MaxJumpMultiplier-1)
		change := direction * (magnitude - 1)
		step = Step{
			Price:          current * (1 + change),
			WasJump:        true,
			JumpPercentage: change * 100,
		}
	} else {
		change := (s.rnd.Float64()*2 - 1) * p.Volatility
		step = Step{Price: current * (1 + change)}
	}

	step.Price = clamp(step.Price, p.PriceCap)
	return step
}

// Path runs n consecutive steps starting at start and returns them in order.
func (s *Simulator) Path(start float64, p Params, n int) []Step {
	if n <= 0 {
		return nil
	}
	steps := make([]Step, 0, n)
	price := start
	for i := 0; i < n; i++ {
		step := s.Next(price, p)
		steps = append(steps, step)
		price = step.Price
	}
	return steps
}

// Intn returns a uniform integer in [lo, hi] using the simulator's source.
func (s *Simulator) Intn(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + int64(s.rnd.Float64()*float64(hi-lo+1))
}

func clamp(price, limit float64) float64 {
	if math.IsNaN(price) || price < MinPrice {
		price = MinPrice
	}
	if limit > 0 && price > limit {
		price = limit
	}
	return price
}
