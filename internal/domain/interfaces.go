package domain

// Record is one decoded fixed-size corpus record.
type Record struct {
	Code   uint16
	Width  int
	Height int
	// Raster holds Width*Height intensity samples, row-major.
	Raster []byte
}

// Tensor is a dense row-major float32 array.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NumElements returns the product of the shape dimensions.
func (t Tensor) NumElements() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	return n
}

// Sample is a normalized image paired with its class id.
type Sample struct {
	Image Tensor
	Label int
}

// FileStats are the counters collected for one source file.
type FileStats struct {
	Name      string
	Records   int
	Matched   int
	Truncated int
}

// ScanResult is the output of one pass over the corpus. Files and the
// counters cover completed files only; failed files appear in Failed.
type ScanResult struct {
	Files   []FileStats
	Failed  []FileError
	Total   int
	Matched int
	Skipped int
	// Truncated counts trailing partial blocks that were discarded.
	Truncated int
	// ClassCounts[id] is the number of samples labeled id.
	ClassCounts []int
}

// Split is the result of partitioning a sample table.
type Split struct {
	Train []Sample
	Val   []Sample
	// Singletons lists class ids that had fewer than two samples.
	Singletons []int
	// Dropped counts samples removed by the singleton policy.
	Dropped int
}

// Classifier maps an adjusted code to a character in the target set.
type Classifier interface {
	Classify(code uint32) (rune, bool)
}

// Registry assigns dense ids to characters in first-seen order.
type Registry interface {
	Assign(ch rune) int
	IDOf(ch rune) (int, bool)
	CharacterOf(id int) (rune, bool)
	Size() int
}

// Normalizer turns a raw raster into a canonical sample tensor.
type Normalizer interface {
	Name() string
	Shape() (height, width int)
	Normalize(raster []byte, width, height int) (Tensor, error)
}

// Splitter partitions samples into train and validation sets.
type Splitter interface {
	Split(samples []Sample) (Split, error)
}

// SampleWriter persists one partition of samples.
type SampleWriter interface {
	WriteShard(path string, samples []Sample) (string, error)
}

// ConvertService defines the operations exposed by the application core.
type ConvertService interface {
	Convert(inputDir, outputDir string) (*Report, error)
}
