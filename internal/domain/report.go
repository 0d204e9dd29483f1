package domain

// Report summarizes one conversion run.
type Report struct {
	Scan       ScanResult
	NumClasses int
	TrainCount int
	ValCount   int
	Singletons []int
	Dropped    int
	// Written lists the output files produced, relative to the output dir.
	Written []string
}
