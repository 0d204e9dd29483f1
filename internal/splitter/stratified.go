package splitter

import (
	"fmt"
	"math"
	"math/rand"

	"kanaset/internal/domain"
)

// SingletonPolicy decides what happens to classes with fewer than two samples.
type SingletonPolicy string

const (
	// KeepInTrain places singleton samples in the training partition.
	KeepInTrain SingletonPolicy = "train"
	// Drop removes singleton samples and counts them.
	Drop SingletonPolicy = "drop"
	// Fail rejects the split with an *InsufficientSamplesError.
	Fail SingletonPolicy = "error"
)

// ParsePolicy maps a config string to a policy; empty selects KeepInTrain.
func ParsePolicy(s string) (SingletonPolicy, error) {
	switch SingletonPolicy(s) {
	case "", KeepInTrain:
		return KeepInTrain, nil
	case Drop, Fail:
		return SingletonPolicy(s), nil
	}
	return "", fmt.Errorf("unknown singleton policy: %s", s)
}

// Stratified holds out the same fraction of every class for validation.
type Stratified struct {
	fraction float64
	seed     int64
	policy   SingletonPolicy
}

func NewStratified(fraction float64, seed int64, policy SingletonPolicy) (*Stratified, error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, fmt.Errorf("validation fraction %v outside (0,1)", fraction)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = KeepInTrain
	}
	return &Stratified{fraction: fraction, seed: seed, policy: policy}, nil
}

// ValCount is the number of validation samples taken from a class of size n:
// round(n*fraction) clamped to [1, n-1]. Classes below two samples give 0.
func (s *Stratified) ValCount(n int) int {
	if n < 2 {
		return 0
	}
	k := int(math.Round(float64(n) * s.fraction))
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

// Split partitions samples by class. Classes are visited in id order and the
// same seed always yields the same partitions for the same input.
func (s *Stratified) Split(samples []domain.Sample) (domain.Split, error) {
	var out domain.Split
	byClass := map[int][]int{}
	maxLabel := -1
	for i, smp := range samples {
		if smp.Label < 0 {
			return domain.Split{}, fmt.Errorf("sample %d has negative label %d", i, smp.Label)
		}
		byClass[smp.Label] = append(byClass[smp.Label], i)
		if smp.Label > maxLabel {
			maxLabel = smp.Label
		}
	}
	for id := 0; id <= maxLabel; id++ {
		if n := len(byClass[id]); n > 0 && n < 2 {
			out.Singletons = append(out.Singletons, id)
		}
	}
	if len(out.Singletons) > 0 && s.policy == Fail {
		return domain.Split{}, &domain.InsufficientSamplesError{Classes: out.Singletons}
	}

	rng := rand.New(rand.NewSource(s.seed))
	for id := 0; id <= maxLabel; id++ {
		idx := byClass[id]
		if len(idx) == 0 {
			continue
		}
		if len(idx) < 2 {
			if s.policy == Drop {
				out.Dropped += len(idx)
				continue
			}
			for _, i := range idx {
				out.Train = append(out.Train, samples[i])
			}
			continue
		}
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		k := s.ValCount(len(idx))
		for _, i := range idx[:k] {
			out.Val = append(out.Val, samples[i])
		}
		for _, i := range idx[k:] {
			out.Train = append(out.Train, samples[i])
		}
	}
	rng.Shuffle(len(out.Train), func(a, b int) { out.Train[a], out.Train[b] = out.Train[b], out.Train[a] })
	rng.Shuffle(len(out.Val), func(a, b int) { out.Val[a], out.Val[b] = out.Val[b], out.Val[a] })
	return out, nil
}
