package engine

import "fmt"

// SaveCounters are the per-channel draw counts a save file records. They are the
// only state needed to resume the run-scoped channels exactly.
type SaveCounters struct {
	Monster  int `json:"monster_seed_count"`
	Event    int `json:"event_seed_count"`
	Merchant int `json:"merchant_seed_count"`
	Card     int `json:"card_seed_count"`
	Treasure int `json:"treasure_seed_count"`
	Relic    int `json:"relic_seed_count"`
	Potion   int `json:"potion_seed_count"`
}

func (c *SaveCounters) field(ch Channel) *int {
	switch ch {
	case ChannelMonster:
		return &c.Monster
	case ChannelEvent:
		return &c.Event
	case ChannelMerchant:
		return &c.Merchant
	case ChannelCard:
		return &c.Card
	case ChannelTreasure:
		return &c.Treasure
	case ChannelRelic:
		return &c.Relic
	case ChannelPotion:
		return &c.Potion
	}
	return nil
}

// Get returns the stored counter for a run-scoped channel.
func (c SaveCounters) Get(ch Channel) (int, bool) {
	p := c.field(ch)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// RunStreams owns every substream of a single run. One value per run; it is not
// safe for concurrent use, but separate runs never share one.
type RunStreams struct {
	seed    int64
	pos     Position
	streams map[Channel]*Substream
}

// NewRunStreams derives every channel for the start of a run (floor 0, act 1).
func NewRunStreams(seed int64) *RunStreams {
	r := &RunStreams{seed: seed, pos: Position{Act: 1}, streams: make(map[Channel]*Substream, len(AllChannels))}
	for _, ch := range AllChannels {
		s, _ := DeriveAt(seed, ch, r.pos)
		r.streams[ch] = s
	}
	return r
}

// ResumeRunStreams rebuilds a run from persisted counters. Run-scoped channels are
// fast-forwarded; scoped channels are derived fresh for pos, as the reference
// engine does on load.
func ResumeRunStreams(seed int64, counters SaveCounters, pos Position) (*RunStreams, error) {
	r := &RunStreams{seed: seed, pos: pos, streams: make(map[Channel]*Substream, len(AllChannels))}
	for _, ch := range AllChannels {
		n, _ := counters.Get(ch)
		s, err := RestoreAt(seed, ch, pos, n)
		if err != nil {
			return nil, fmt.Errorf("resume %s: %w", ch, err)
		}
		r.streams[ch] = s
	}
	return r, nil
}

func (r *RunStreams) Seed() int64 { return r.seed }

func (r *RunStreams) Position() Position { return r.pos }

// Stream returns the live substream for ch.
func (r *RunStreams) Stream(ch Channel) (*Substream, error) {
	s, ok := r.streams[ch]
	if !ok {
		return nil, invalidChannel(string(ch))
	}
	return s, nil
}

// MustStream is Stream for channel constants known at compile time.
func (r *RunStreams) MustStream(ch Channel) *Substream {
	s, err := r.Stream(ch)
	if err != nil {
		panic(err)
	}
	return s
}

// EnterFloor reseeds the floor-scoped channels with seed+floor.
func (r *RunStreams) EnterFloor(floor int) {
	r.pos.Floor = floor
	r.reseed(ScopeFloor)
}

// EnterAct reseeds the map channel for a new act.
func (r *RunStreams) EnterAct(act int) {
	r.pos.Act = act
	r.reseed(ScopeAct)
}

func (r *RunStreams) reseed(scope Scope) {
	for _, ch := range AllChannels {
		if ch.Scope() != scope {
			continue
		}
		s, _ := DeriveAt(r.seed, ch, r.pos)
		r.streams[ch] = s
	}
}

// Counters snapshots the persisted counters.
func (r *RunStreams) Counters() SaveCounters {
	var c SaveCounters
	for _, ch := range RunChannels() {
		*c.field(ch) = r.streams[ch].Counter()
	}
	return c
}

// Clone copies every substream so a caller can look ahead without advancing the run.
func (r *RunStreams) Clone() *RunStreams {
	out := &RunStreams{seed: r.seed, pos: r.pos, streams: make(map[Channel]*Substream, len(r.streams))}
	for ch, s := range r.streams {
		out.streams[ch] = s.Clone()
	}
	return out
}
