package engine

import "github.com/pkg/errors"

// Prediction is the outcome of one reward draw.
type Prediction struct {
	Channel Channel `json:"channel"`
	Counter int     `json:"counter"` // counter before the draw
	Pool    PoolID  `json:"pool"`
	Index   int     `json:"index"`
	Picked  string  `json:"picked"`
}

// PredictPick draws one member of pool from s, advancing s by one.
func PredictPick(res *Resolver, s *Substream, pool PoolID) (Prediction, error) {
	order, err := res.Order(pool)
	if err != nil {
		return Prediction{}, err
	}
	before := s.Counter()
	picked, idx, err := Pick(order, s)
	if err != nil {
		return Prediction{}, errors.Wrapf(err, "pool %q", pool)
	}
	return Prediction{Channel: s.Channel(), Counter: before, Pool: pool, Index: idx, Picked: picked}, nil
}

// Observation is one reward seen in a recorded session.
type Observation struct {
	Channel  Channel `json:"channel"`
	Counter  int     `json:"counter"`
	Floor    int     `json:"floor,omitempty"`
	Act      int     `json:"act,omitempty"`
	Pool     PoolID  `json:"pool"`
	Observed string  `json:"observed"`
}

// Mismatch pairs an observation with what the seed predicts.
type Mismatch struct {
	Observation Observation `json:"observation"`
	Predicted   Prediction  `json:"predicted"`
}

// Report is the result of checking a recorded session against its seed.
type Report struct {
	Seed       int64      `json:"seed"`
	Checked    int        `json:"checked"`
	Matches    int        `json:"matches"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Verify replays every observation from a freshly restored substream. Observations
// are independent, so order in obs does not matter. Configuration errors abort.
func Verify(seed int64, res *Resolver, obs []Observation) (Report, error) {
	rep := Report{Seed: seed}
	for i, o := range obs {
		act := o.Act
		if act == 0 {
			act = 1
		}
		s, err := RestoreAt(seed, o.Channel, Position{Floor: o.Floor, Act: act}, o.Counter)
		if err != nil {
			return rep, errors.Wrapf(err, "observation %d", i)
		}
		p, err := PredictPick(res, s, o.Pool)
		if err != nil {
			return rep, errors.Wrapf(err, "observation %d", i)
		}
		rep.Checked++
		if p.Picked == o.Observed {
			rep.Matches++
			continue
		}
		rep.Mismatches = append(rep.Mismatches, Mismatch{Observation: o, Predicted: p})
	}
	return rep, nil
}
