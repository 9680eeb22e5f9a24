package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredictPick(t *testing.T) {
	res := NewResolver(testTable())
	s, _ := Derive(goldenSeed, ChannelCard)
	pool := CardPool("ironclad", "common")

	p, err := PredictPick(res, s, pool)
	require.NoError(t, err)
	require.Equal(t, Prediction{Channel: ChannelCard, Counter: 0, Pool: pool, Index: 15, Picked: "Flex"}, p)
	require.Equal(t, 1, s.Counter())

	_, err = PredictPick(res, s, "cards:watcher:rare")
	require.ErrorIs(t, err, ErrUnknownPool)
}

func TestVerifyReportsMismatches(t *testing.T) {
	res := NewResolver(testTable())
	pool := CardPool("ironclad", "common")

	// Expected picks at later counters come from a restored stream, the way a
	// resumed run would reach them.
	expect := func(counter int) string {
		s, err := Restore(goldenSeed, ChannelCard, counter)
		require.NoError(t, err)
		order, _ := res.Order(pool)
		picked, _, err := Pick(order, s)
		require.NoError(t, err)
		return picked
	}

	obs := []Observation{
		{Channel: ChannelCard, Counter: 0, Pool: pool, Observed: "Flex"},
		{Channel: ChannelCard, Counter: 5, Pool: pool, Observed: expect(5)},
		{Channel: ChannelCard, Counter: 2, Pool: pool, Observed: "Not A Card"},
	}
	rep, err := Verify(goldenSeed, res, obs)
	require.NoError(t, err)
	require.Equal(t, 3, rep.Checked)
	require.Equal(t, 2, rep.Matches)
	require.False(t, rep.OK())
	require.Len(t, rep.Mismatches, 1)
	require.Equal(t, expect(2), rep.Mismatches[0].Predicted.Picked)
	require.Equal(t, 2, rep.Mismatches[0].Predicted.Counter)
}

func TestVerifyAbortsOnConfigurationError(t *testing.T) {
	res := NewResolver(testTable())
	_, err := Verify(goldenSeed, res, []Observation{{Channel: "loot", Pool: CardPool("ironclad", "common")}})
	require.ErrorIs(t, err, ErrInvalidChannel)

	_, err = Verify(goldenSeed, res, []Observation{{Channel: ChannelCard, Pool: "cards:silent:rare"}})
	require.ErrorIs(t, err, ErrUnknownPool)
}
