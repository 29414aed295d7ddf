package evaluation

// Window is one rolling train/test split over a bar-indexed price series.
// Indices are half-open: TrainStart <= i < TrainEnd trains, TestStart <= i <
// TestEnd tests, with TestStart == TrainEnd.
type Window struct {
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// MinWindowBars is the minimum number of observations required on each side
// of a split; thinner windows are skipped.
const MinWindowBars = 100

// GenerateWindows slides a testBars-sized step across the series, each test
// slice preceded by a trainBars-sized training slice. Windows with fewer
// than MinWindowBars observations on either side are skipped.
func GenerateWindows(numBars, trainBars, testBars int) []Window {
	var windows []Window
	if trainBars < 1 || testBars < 1 {
		return windows
	}

	for start := 0; start+trainBars < numBars; start += testBars {
		trainEnd := start + trainBars
		testEnd := trainEnd + testBars
		if testEnd > numBars {
			testEnd = numBars
		}
		if trainEnd-start < MinWindowBars || testEnd-trainEnd < MinWindowBars {
			continue
		}
		windows = append(windows, Window{
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
	}
	return windows
}
