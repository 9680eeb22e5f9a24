package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStreamsChannelsAreIndependent(t *testing.T) {
	a := NewRunStreams(goldenSeed)
	b := NewRunStreams(goldenSeed)

	// Drawing heavily from one channel must not move any other.
	for i := 0; i < 50; i++ {
		a.MustStream(ChannelRelic).Int(7)
	}
	require.Equal(t, b.MustStream(ChannelCard).Int(100), a.MustStream(ChannelCard).Int(100))
	require.Equal(t, 95, NewRunStreams(goldenSeed).MustStream(ChannelCard).Int(100))
}

func TestRunStreamsCountersRoundTrip(t *testing.T) {
	live := NewRunStreams(goldenSeed)
	live.MustStream(ChannelCard).Int(20)
	live.MustStream(ChannelCard).Float()
	live.MustStream(ChannelPotion).Chance(0.4)
	for i := 0; i < 9; i++ {
		live.MustStream(ChannelMonster).Random(3)
	}
	live.EnterFloor(6)
	live.MustStream(ChannelShuffle).Int(10)

	counters := live.Counters()
	require.Equal(t, SaveCounters{Card: 2, Potion: 1, Monster: 9}, counters)

	raw, err := json.Marshal(counters)
	require.NoError(t, err)
	require.JSONEq(t, `{"monster_seed_count":9,"event_seed_count":0,"merchant_seed_count":0,"card_seed_count":2,"treasure_seed_count":0,"relic_seed_count":0,"potion_seed_count":1}`, string(raw))

	resumed, err := ResumeRunStreams(goldenSeed, counters, live.Position())
	require.NoError(t, err)
	require.Equal(t, counters, resumed.Counters())
	// Run-scoped channels resume at the same counter. Values after a restore are
	// only guaranteed equal when the live stream drew with the restore bound, so
	// compare against a restore of the same counter rather than the live stream.
	want, _ := Restore(goldenSeed, ChannelCard, 2)
	require.Equal(t, want.Int(100), resumed.MustStream(ChannelCard).Int(100))
	// Floor channels come back fresh for the saved floor.
	fresh, _ := DeriveAt(goldenSeed, ChannelShuffle, Position{Floor: 6, Act: 1})
	require.Equal(t, fresh.Int(10), resumed.MustStream(ChannelShuffle).Int(10))
}

func TestRunStreamsEnterFloorReseeds(t *testing.T) {
	r := NewRunStreams(goldenSeed)
	r.MustStream(ChannelMisc).Int(10)
	r.EnterFloor(3)
	s := r.MustStream(ChannelMisc)
	require.Equal(t, 0, s.Counter())
	require.Equal(t, goldenSeed+3, s.Seed())
	require.Equal(t, 3, s.Int(10))

	r.EnterAct(2)
	require.Equal(t, goldenSeed+200, r.MustStream(ChannelMap).Seed())
	require.Equal(t, goldenSeed, r.MustStream(ChannelCard).Seed())
}

func TestRunStreamsUnknownChannel(t *testing.T) {
	r := NewRunStreams(goldenSeed)
	_, err := r.Stream("loot")
	require.ErrorIs(t, err, ErrInvalidChannel)
	require.Panics(t, func() { r.MustStream("loot") })
}

func TestRunStreamsClone(t *testing.T) {
	r := NewRunStreams(goldenSeed)
	peek := r.Clone()
	require.Equal(t, 95, peek.MustStream(ChannelCard).Int(100))
	require.Equal(t, 0, r.MustStream(ChannelCard).Counter())
}

func TestSaveKeys(t *testing.T) {
	require.Equal(t, "card_seed_count", ChannelCard.SaveKey())
	require.Equal(t, "", ChannelShuffle.SaveKey())
	require.Len(t, RunChannels(), 7)
}
