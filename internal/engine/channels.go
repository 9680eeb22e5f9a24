package engine

// String backed enums so channel names survive persistence and CLI flags unchanged.

type Channel string
type Scope string

const (
	ChannelMonster    Channel = "monster"
	ChannelEvent      Channel = "event"
	ChannelMerchant   Channel = "merchant"
	ChannelCard       Channel = "card"
	ChannelTreasure   Channel = "treasure"
	ChannelRelic      Channel = "relic"
	ChannelPotion     Channel = "potion"
	ChannelMonsterHP  Channel = "monster_hp"
	ChannelAI         Channel = "ai"
	ChannelShuffle    Channel = "shuffle"
	ChannelCardRandom Channel = "card_random"
	ChannelMisc       Channel = "misc"
	ChannelMap        Channel = "map"
)

// AllChannels is ordered the way the reference engine initialises its generators.
var AllChannels = []Channel{
	ChannelMonster, ChannelEvent, ChannelMerchant, ChannelCard, ChannelTreasure, ChannelRelic, ChannelPotion,
	ChannelMonsterHP, ChannelAI, ChannelShuffle, ChannelCardRandom, ChannelMisc,
	ChannelMap,
}

const (
	ScopeRun   Scope = "run"   // seeded once, counter persisted in saves
	ScopeFloor Scope = "floor" // reseeded with seed+floor on every floor
	ScopeAct   Scope = "act"   // reseeded with an act offset when an act map is generated
)

var AllScopes = []Scope{ScopeRun, ScopeFloor, ScopeAct}

var channelScopes = map[Channel]Scope{
	ChannelMonster:    ScopeRun,
	ChannelEvent:      ScopeRun,
	ChannelMerchant:   ScopeRun,
	ChannelCard:       ScopeRun,
	ChannelTreasure:   ScopeRun,
	ChannelRelic:      ScopeRun,
	ChannelPotion:     ScopeRun,
	ChannelMonsterHP:  ScopeFloor,
	ChannelAI:         ScopeFloor,
	ChannelShuffle:    ScopeFloor,
	ChannelCardRandom: ScopeFloor,
	ChannelMisc:       ScopeFloor,
	ChannelMap:        ScopeAct,
}

// actMapOffset is added to the run seed when the map generator is reseeded for an
// act: 1, 200, 600 and 1200 for acts one to four.
func actMapOffset(act int) int64 {
	if act <= 1 {
		return int64(act)
	}
	return int64(act) * 100 * int64(act-1)
}

// Generic helpers
func contains[T ~string](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (c Channel) Validate() bool { return contains(AllChannels, c) }
func (s Scope) Validate() bool   { return contains(AllScopes, s) }

// Scope reports how the channel is reseeded. Unknown channels report "".
func (c Channel) Scope() Scope { return channelScopes[c] }

// SaveKey is the field name the reference save file uses for the channel counter.
// Only run-scoped channels are persisted.
func (c Channel) SaveKey() string {
	if c.Scope() != ScopeRun {
		return ""
	}
	return string(c) + "_seed_count"
}

// ParseChannel validates a raw channel name.
func ParseChannel(raw string) (Channel, error) {
	c := Channel(raw)
	if !c.Validate() {
		return "", invalidChannel(raw)
	}
	return c, nil
}

// List helpers
func ListChannels() []Channel { return append([]Channel{}, AllChannels...) }

// RunChannels returns the channels whose counters are persisted, in save order.
func RunChannels() []Channel {
	out := make([]Channel, 0, len(AllChannels))
	for _, c := range AllChannels {
		if c.Scope() == ScopeRun {
			out = append(out, c)
		}
	}
	return out
}
