package engine

import "fmt"

// restoreBound is the range the reference engine replays when fast-forwarding a
// generator to a saved counter. Each replay is one random(999) call.
const restoreBound = 999

// Position locates the run for floor- and act-scoped channels.
type Position struct {
	Floor int
	Act   int
}

// Substream is one deterministic channel of a run. Every draw method advances
// Counter by exactly one, however many generator words the draw consumed.
// A Substream is not safe for concurrent use.
type Substream struct {
	channel Channel
	seed    int64
	gen     xorShift128
	counter int
}

// Derive returns a fresh substream for a run-scoped channel, or for a scoped
// channel at floor 0 / act 1.
func Derive(runSeed int64, ch Channel) (*Substream, error) {
	return DeriveAt(runSeed, ch, Position{Act: 1})
}

// DeriveAt returns a fresh substream for ch positioned at pos.
func DeriveAt(runSeed int64, ch Channel, pos Position) (*Substream, error) {
	seed, err := channelSeed(runSeed, ch, pos)
	if err != nil {
		return nil, err
	}
	return newSubstream(ch, seed), nil
}

// Restore fast-forwards a freshly derived substream by counter replays so the next
// draw equals the (counter+1)-th draw of a continuous stream.
func Restore(runSeed int64, ch Channel, counter int) (*Substream, error) {
	return RestoreAt(runSeed, ch, Position{Act: 1}, counter)
}

// RestoreAt is Restore for a scoped channel at pos.
func RestoreAt(runSeed int64, ch Channel, pos Position, counter int) (*Substream, error) {
	if counter < 0 {
		return nil, fmt.Errorf("restore %s: negative counter %d", ch, counter)
	}
	s, err := DeriveAt(runSeed, ch, pos)
	if err != nil {
		return nil, err
	}
	for i := 0; i < counter; i++ {
		s.Random(restoreBound)
	}
	return s, nil
}

func channelSeed(runSeed int64, ch Channel, pos Position) (int64, error) {
	switch ch.Scope() {
	case ScopeRun:
		return runSeed, nil
	case ScopeFloor:
		return runSeed + int64(pos.Floor), nil
	case ScopeAct:
		return runSeed + actMapOffset(pos.Act), nil
	default:
		return 0, invalidChannel(string(ch))
	}
}

func newSubstream(ch Channel, seed int64) *Substream {
	return &Substream{channel: ch, seed: seed, gen: newXorShift128(seed)}
}

func (s *Substream) Channel() Channel { return s.channel }

// Seed is the derived generator seed, not the run seed.
func (s *Substream) Seed() int64 { return s.seed }

func (s *Substream) Counter() int { return s.counter }

// Clone returns an independent copy at the same position, useful for peeking.
func (s *Substream) Clone() *Substream {
	c := *s
	return &c
}

// Int returns a value in [0,bound). It panics if bound <= 0, like math/rand.
func (s *Substream) Int(bound int) int {
	s.counter++
	return int(s.gen.nextInt(int32(bound)))
}

// Random returns a value in [0,rangeInclusive].
func (s *Substream) Random(rangeInclusive int) int {
	return s.Int(rangeInclusive + 1)
}

// IntRange returns a value in [start,end].
func (s *Substream) IntRange(start, end int) int {
	s.counter++
	return start + int(s.gen.nextInt(int32(end-start+1)))
}

// Long returns the raw 64-bit output as a signed value.
func (s *Substream) Long() int64 {
	s.counter++
	return int64(s.gen.nextLong())
}

// LongRange scales a double draw by rng and truncates toward zero.
func (s *Substream) LongRange(rng int64) int64 {
	s.counter++
	return truncLong(s.gen.nextDouble() * float64(rng))
}

// LongBetween returns start + LongRange(end-start).
func (s *Substream) LongBetween(start, end int64) int64 {
	s.counter++
	return start + truncLong(s.gen.nextDouble()*float64(end-start))
}

// Float returns a single-precision value in [0,1).
func (s *Substream) Float() float32 {
	s.counter++
	return s.gen.nextFloat()
}

// FloatRange returns lo + Float()*(hi-lo) in single precision. The explicit
// conversion forces rounding of the product so the compiler cannot fuse it.
func (s *Substream) FloatRange(lo, hi float32) float32 {
	s.counter++
	return lo + float32(s.gen.nextFloat()*(hi-lo))
}

func (s *Substream) Bool() bool {
	s.counter++
	return s.gen.nextBoolean()
}

// Chance reports whether a single-precision draw falls below p.
func (s *Substream) Chance(p float32) bool {
	s.counter++
	return s.gen.nextFloat() < p
}
