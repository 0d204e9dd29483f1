package samplestore

import "kanaset/internal/domain"

// Storage holds the accumulated sample table of a run.
// It is append-only while the corpus is scanned and read-only afterwards.
type Storage interface {
	Init(shape []int) error
	Append(samples ...domain.Sample) error
	Len() int
	Snapshot() []domain.Sample
	Clear() error
}
