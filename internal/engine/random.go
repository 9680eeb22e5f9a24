package engine

import "math"

const (
	normDouble = 1.0 / (1 << 53)
	normFloat  = 1.0 / (1 << 24)
)

// murmurHash3 is the 64-bit finalizer used to scramble xorshift seeds.
func murmurHash3(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// xorShift128 reproduces the reference runtime's xorshift128+ generator bit for bit.
// Shifts are unsigned, matching the reference's >>> on 64-bit longs.
type xorShift128 struct {
	seed0 uint64
	seed1 uint64
}

func newXorShift128(seed int64) xorShift128 {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(1) << 63
	}
	s0 := murmurHash3(s)
	return xorShift128{seed0: s0, seed1: murmurHash3(s0)}
}

func (x *xorShift128) nextLong() uint64 {
	s1 := x.seed0
	s0 := x.seed1
	x.seed0 = s0
	s1 ^= s1 << 23
	x.seed1 = s1 ^ s0 ^ (s1 >> 17) ^ (s0 >> 26)
	return x.seed1 + s0
}

// nextLongN returns a value in [0,n). The acceptance test is evaluated in signed
// 64-bit arithmetic so the rare overflow rejection consumes the same state.
func (x *xorShift128) nextLongN(n int64) int64 {
	if n <= 0 {
		panic("engine: bound must be positive")
	}
	for {
		bits := int64(x.nextLong() >> 1)
		value := bits % n
		if bits-value+(n-1) >= 0 {
			return value
		}
	}
}

func (x *xorShift128) nextInt(n int32) int32 { return int32(x.nextLongN(int64(n))) }

func (x *xorShift128) nextDouble() float64 {
	return float64(x.nextLong()>>11) * normDouble
}

func (x *xorShift128) nextFloat() float32 {
	return float32(float64(x.nextLong()>>40) * normFloat)
}

func (x *xorShift128) nextBoolean() bool { return x.nextLong()&1 != 0 }

// truncLong mirrors a (long) cast of a double: truncation toward zero, saturating.
func truncLong(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}
