package engine

import (
	"github.com/charmbracelet/log"
)

// HookContext is what a handler sees: the combat state it may mutate and the run's
// streams as its only source of randomness.
type HookContext[S any] struct {
	State   S
	Streams *RunStreams
	Hook    HookName
	Handler string
	Owner   Owner
}

// Rand returns the run's substream for ch.
func (hc *HookContext[S]) Rand(ch Channel) (*Substream, error) {
	return hc.Streams.Stream(ch)
}

// Trace records one handler invocation. For notify hooks In and Out are zero.
type Trace struct {
	Hook    HookName
	Handler string
	Owner   Owner
	Kind    HookKind
	In      float64
	Out     float64
	Removed bool
}

// Observer receives a Trace after every handler that returns without error.
type Observer func(Trace)

// DispatchOptions configure a Dispatcher. Zero values are usable.
type DispatchOptions struct {
	Logger   *log.Logger
	Observer Observer
}

// FireResult summarises one notify dispatch.
type FireResult struct {
	Invoked int
	Retired []string
}

// Dispatcher fires hooks for one run. The registry is shared; retirements and the
// stream handle are per run. Not safe for concurrent use.
type Dispatcher[S any] struct {
	reg      *Registry[S]
	streams  *RunStreams
	logger   *log.Logger
	observer Observer
	retired  map[*Binding[S]]bool
}

func NewDispatcher[S any](reg *Registry[S], streams *RunStreams, opts DispatchOptions) *Dispatcher[S] {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher[S]{
		reg:      reg,
		streams:  streams,
		logger:   logger.WithPrefix("dispatch"),
		observer: opts.Observer,
		retired:  make(map[*Binding[S]]bool),
	}
}

// Reset clears retired bindings, e.g. at the start of a new combat.
func (d *Dispatcher[S]) Reset() {
	clear(d.retired)
}

// Retired reports whether the named binding on hook has signalled removal.
func (d *Dispatcher[S]) Retired(hook HookName, name string) bool {
	for b := range d.retired {
		if b.Hook == hook && b.Name == name {
			return true
		}
	}
	return false
}

// Fire runs every live handler of a notify hook in order. A handler signalling
// removal is retired but the chain continues; a handler error stops the chain.
func (d *Dispatcher[S]) Fire(hook HookName, state S) (FireResult, error) {
	chain, err := d.reg.lookup(hook, HookNotify)
	if err != nil {
		return FireResult{}, err
	}
	var res FireResult
	for _, b := range chain {
		if d.retired[b] {
			continue
		}
		hc := d.context(b, state)
		sig, err := b.notify(hc)
		if err != nil {
			return res, d.fail(b, err)
		}
		res.Invoked++
		removed := sig == SignalRemove
		if removed {
			d.retired[b] = true
			res.Retired = append(res.Retired, b.Name)
			d.logger.Debug("binding retired", "hook", hook, "handler", b.Name, "owner", b.Owner)
		}
		d.observe(Trace{Hook: hook, Handler: b.Name, Owner: b.Owner, Kind: HookNotify, Removed: removed})
	}
	return res, nil
}

// Transform threads value through every handler of a transforming hook and returns
// the final value. On error the returned value is the input value.
func (d *Dispatcher[S]) Transform(hook HookName, state S, value float64) (float64, error) {
	chain, err := d.reg.lookup(hook, HookTransform)
	if err != nil {
		return value, err
	}
	cur := value
	for _, b := range chain {
		if d.retired[b] {
			continue
		}
		hc := d.context(b, state)
		next, err := b.transform(hc, cur)
		if err != nil {
			return value, d.fail(b, err)
		}
		d.observe(Trace{Hook: hook, Handler: b.Name, Owner: b.Owner, Kind: HookTransform, In: cur, Out: next})
		cur = next
	}
	return cur, nil
}

func (d *Dispatcher[S]) context(b *Binding[S], state S) *HookContext[S] {
	return &HookContext[S]{State: state, Streams: d.streams, Hook: b.Hook, Handler: b.Name, Owner: b.Owner}
}

func (d *Dispatcher[S]) fail(b *Binding[S], err error) error {
	d.logger.Error("hook handler failed", "hook", b.Hook, "handler", b.Name, "owner", b.Owner, "err", err)
	return &HandlerError{Hook: b.Hook, Handler: b.Name, Owner: b.Owner, Err: err}
}

func (d *Dispatcher[S]) observe(t Trace) {
	if d.observer != nil {
		d.observer(t)
	}
}
