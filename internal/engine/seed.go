package engine

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// seedAlphabet is the reference engine's player-facing seed alphabet. 'O' is
// omitted so it can never be confused with '0'.
const seedAlphabet = "0123456789ABCDEFGHIJKLMNPQRSTUVWXYZ"

const seedBase = uint64(len(seedAlphabet))

// ParseSeed decodes a seed string. Text prefixed with '#' is read as a signed
// decimal integer; anything else is base-35 over seedAlphabet with 64-bit wrap.
func ParseSeed(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.Wrap(ErrInvalidSeed, "seed text must not be empty")
	}
	if strings.HasPrefix(text, "#") {
		v, err := strconv.ParseInt(text[1:], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidSeed, "numeric seed %q", text)
		}
		return v, nil
	}
	var total uint64
	for _, r := range strings.ToUpper(text) {
		if r == 'O' {
			r = '0'
		}
		idx := strings.IndexRune(seedAlphabet, r)
		if idx < 0 {
			return 0, errors.Wrapf(ErrInvalidSeed, "character %q in %q", r, text)
		}
		total = total*seedBase + uint64(idx)
	}
	return int64(total), nil
}

// FormatSeed renders a seed the way the reference engine displays it.
func FormatSeed(seed int64) string {
	v := uint64(seed)
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = seedAlphabet[v%seedBase]
		v /= seedBase
	}
	return string(buf[i:])
}

// RunSeed is the immutable seed of one run, kept with the text it was parsed from.
type RunSeed struct {
	Text  string
	Value int64
}

// NewRunSeed parses seed text into a RunSeed. Empty text is rejected.
func NewRunSeed(seedText string) (RunSeed, error) {
	v, err := ParseSeed(seedText)
	if err != nil {
		return RunSeed{}, err
	}
	return RunSeed{Text: strings.ToUpper(strings.TrimSpace(seedText)), Value: v}, nil
}

// SeedFromValue wraps a numeric seed, deriving its display text.
func SeedFromValue(v int64) RunSeed {
	return RunSeed{Text: FormatSeed(v), Value: v}
}

// Streams returns fresh run streams for this seed at the start of a run.
func (r RunSeed) Streams() *RunStreams { return NewRunStreams(r.Value) }
