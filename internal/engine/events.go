package engine

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// HookKind separates hooks that thread a value through their handlers from hooks
// that only notify.
type HookKind int

const (
	HookNotify HookKind = iota + 1
	HookTransform
)

func (k HookKind) String() string {
	switch k {
	case HookNotify:
		return "notify"
	case HookTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// HookName is a named point in combat resolution.
type HookName string

const (
	HookAtStartOfTurn            HookName = "atStartOfTurn"
	HookAtStartOfTurnPostDraw    HookName = "atStartOfTurnPostDraw"
	HookOnCardDraw               HookName = "onCardDraw"
	HookOnApplyPower             HookName = "onApplyPower"
	HookOnScry                   HookName = "onScry"
	HookOnExhaust                HookName = "onExhaust"
	HookAtEndOfTurn              HookName = "atEndOfTurn"
	HookAtDamageGive             HookName = "atDamageGive"
	HookAtDamageReceive          HookName = "atDamageReceive"
	HookOnAttackedToChangeDamage HookName = "onAttackedToChangeDamage"
)

// HookSpec declares a hook point and its kind.
type HookSpec struct {
	Name HookName
	Kind HookKind
}

// Catalog of hook points fired by the combat engine.
var StandardHooks = []HookSpec{
	{Name: HookAtStartOfTurn, Kind: HookNotify},
	{Name: HookAtStartOfTurnPostDraw, Kind: HookNotify},
	{Name: HookOnCardDraw, Kind: HookNotify},
	{Name: HookOnApplyPower, Kind: HookNotify},
	{Name: HookOnScry, Kind: HookNotify},
	{Name: HookOnExhaust, Kind: HookNotify},
	{Name: HookAtEndOfTurn, Kind: HookNotify},
	{Name: HookAtDamageGive, Kind: HookTransform},
	{Name: HookAtDamageReceive, Kind: HookTransform},
	{Name: HookOnAttackedToChangeDamage, Kind: HookTransform},
}

// Side of the board an effect belongs to.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

// Owner identifies the entity a binding belongs to. Slot is the board position
// for enemies and 0 for the player.
type Owner struct {
	Side Side
	Slot int
}

// Player is the owner of player-side effects.
var Player = Owner{Side: SidePlayer}

// Enemy returns the owner for the enemy in board slot.
func Enemy(slot int) Owner { return Owner{Side: SideEnemy, Slot: slot} }

func (o Owner) String() string {
	if o.Side == SidePlayer {
		return "player"
	}
	return fmt.Sprintf("enemy#%d", o.Slot)
}

// Signal lets a notify handler retire its own binding, e.g. a one-shot power.
type Signal int

const (
	SignalContinue Signal = iota
	SignalRemove
)

// NotifyFunc handles a notify hook. It mutates the state held by hc.
type NotifyFunc[S any] func(hc *HookContext[S]) (Signal, error)

// TransformFunc receives the current value and returns the value the next handler sees.
type TransformFunc[S any] func(hc *HookContext[S], value float64) (float64, error)

// Binding pairs a handler with a hook. Bindings fire by ascending Priority and, within
// a priority, in registration order.
type Binding[S any] struct {
	Hook     HookName
	Name     string
	Owner    Owner
	Priority int

	seq       int
	notify    NotifyFunc[S]
	transform TransformFunc[S]
}

func (b *Binding[S]) kind() HookKind {
	if b.transform != nil {
		return HookTransform
	}
	return HookNotify
}

// RegistryBuilder collects the declarative binding table at startup.
type RegistryBuilder[S any] struct {
	specs    map[HookName]HookSpec
	bindings []*Binding[S]
	errs     []error
}

// NewRegistryBuilder starts a registry with the given hook points.
func NewRegistryBuilder[S any](specs ...HookSpec) *RegistryBuilder[S] {
	b := &RegistryBuilder[S]{specs: make(map[HookName]HookSpec, len(specs))}
	for _, spec := range specs {
		b.Hook(spec)
	}
	return b
}

// Hook declares a hook point. Redeclaring a hook with a different kind is an error.
func (b *RegistryBuilder[S]) Hook(spec HookSpec) *RegistryBuilder[S] {
	if prev, ok := b.specs[spec.Name]; ok && prev.Kind != spec.Kind {
		b.errs = append(b.errs, errors.Wrapf(ErrHookKind, "hook %s declared as %s and %s", spec.Name, prev.Kind, spec.Kind))
		return b
	}
	b.specs[spec.Name] = spec
	return b
}

// Notify binds a notify handler.
func (b *RegistryBuilder[S]) Notify(hook HookName, name string, owner Owner, priority int, fn NotifyFunc[S]) *RegistryBuilder[S] {
	return b.add(&Binding[S]{Hook: hook, Name: name, Owner: owner, Priority: priority, notify: fn})
}

// Transform binds a transforming handler.
func (b *RegistryBuilder[S]) Transform(hook HookName, name string, owner Owner, priority int, fn TransformFunc[S]) *RegistryBuilder[S] {
	return b.add(&Binding[S]{Hook: hook, Name: name, Owner: owner, Priority: priority, transform: fn})
}

func (b *RegistryBuilder[S]) add(bind *Binding[S]) *RegistryBuilder[S] {
	if bind.notify == nil && bind.transform == nil {
		b.errs = append(b.errs, fmt.Errorf("binding %s on %s: nil handler", bind.Name, bind.Hook))
		return b
	}
	bind.seq = len(b.bindings)
	b.bindings = append(b.bindings, bind)
	return b
}

// Build validates the table and freezes it into an immutable Registry.
func (b *RegistryBuilder[S]) Build() (*Registry[S], error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	chains := make(map[HookName][]*Binding[S], len(b.specs))
	for name := range b.specs {
		chains[name] = nil
	}
	for _, bind := range b.bindings {
		spec, ok := b.specs[bind.Hook]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownHook, "binding %s on %s", bind.Name, bind.Hook)
		}
		if spec.Kind != bind.kind() {
			return nil, errors.Wrapf(ErrHookKind, "binding %s is %s but hook %s is %s", bind.Name, bind.kind(), bind.Hook, spec.Kind)
		}
		chains[bind.Hook] = append(chains[bind.Hook], bind)
	}
	for _, chain := range chains {
		sort.SliceStable(chain, func(i, j int) bool { return chain[i].Priority < chain[j].Priority })
	}
	specs := make(map[HookName]HookSpec, len(b.specs))
	for k, v := range b.specs {
		specs[k] = v
	}
	return &Registry[S]{specs: specs, chains: chains, size: len(b.bindings)}, nil
}

// Registry is the frozen hook table. It is never mutated after Build and may be
// shared by concurrent runs.
type Registry[S any] struct {
	specs  map[HookName]HookSpec
	chains map[HookName][]*Binding[S]
	size   int
}

func (r *Registry[S]) Spec(name HookName) (HookSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Hooks lists declared hook names, sorted.
func (r *Registry[S]) Hooks() []HookName {
	out := make([]HookName, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Chain returns a copy of the handler chain for name in firing order.
func (r *Registry[S]) Chain(name HookName) ([]Binding[S], error) {
	chain, ok := r.chains[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHook, "hook %q", name)
	}
	out := make([]Binding[S], len(chain))
	for i, b := range chain {
		out[i] = *b
	}
	return out, nil
}

func (r *Registry[S]) lookup(name HookName, want HookKind) ([]*Binding[S], error) {
	spec, ok := r.specs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHook, "hook %q", name)
	}
	if spec.Kind != want {
		return nil, errors.Wrapf(ErrHookKind, "hook %s is %s, fired as %s", name, spec.Kind, want)
	}
	return r.chains[name], nil
}
