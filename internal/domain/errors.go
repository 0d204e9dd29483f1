package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingCorpus       = errors.New("missing corpus")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrEmptyResult         = errors.New("no matching records found")
	ErrInsufficientSamples = errors.New("insufficient samples to stratify")
	ErrCorruptShard        = errors.New("corrupt shard")
)

// MissingCorpusError reports an absent or empty input directory.
type MissingCorpusError struct {
	Dir    string
	Reason string
}

func (e *MissingCorpusError) Error() string {
	return fmt.Sprintf("missing corpus %s: %s", e.Dir, e.Reason)
}

func (e *MissingCorpusError) Is(target error) bool { return target == ErrMissingCorpus }

// MalformedRecordError reports a record buffer of the wrong size.
type MalformedRecordError struct {
	Got  int
	Want int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: got %d bytes, want %d", e.Got, e.Want)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// FileError wraps an I/O failure on a single source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// InsufficientSamplesError lists classes that cannot be stratified.
type InsufficientSamplesError struct {
	Classes []int
}

func (e *InsufficientSamplesError) Error() string {
	ids := make([]string, len(e.Classes))
	for i, c := range e.Classes {
		ids[i] = strconv.Itoa(c)
	}
	return fmt.Sprintf("insufficient samples to stratify classes [%s]", strings.Join(ids, " "))
}

func (e *InsufficientSamplesError) Is(target error) bool { return target == ErrInsufficientSamples }
