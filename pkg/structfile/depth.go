// SPDX-License-Identifier: MPL-2.0

package structfile

const (
	anomalyNone anomaly = iota
	anomalySkipLevel
	anomalyMisaligned
	anomalyChildOfFile
)

type (
	// anomaly is what the depth resolver noticed about one entry line.
	anomaly int

	// depthState is the accumulator threaded through the entry lines. Only the
	// previous entry line is remembered; blank and comment lines never touch it.
	depthState struct {
		seen    bool
		width   int
		depth   int
		wasFile bool
	}
)

// next resolves the logical depth of an entry line indented by width and returns
// the state for the following line. It never looks further back than the previous
// entry line.
func (st depthState) next(width int, isFile bool, step int) (depthState, int, anomaly) {
	depth := 0
	found := anomalyNone

	switch {
	case !st.seen:
		depth = 0
	case width > st.width:
		if st.wasFile {
			depth = st.depth
			found = anomalyChildOfFile
			break
		}
		depth = st.depth + 1
		if width-st.width > step {
			found = anomalySkipLevel
		}
	case width == st.width:
		depth = st.depth
	default:
		diff := st.width - width
		if diff%step != 0 {
			found = anomalyMisaligned
		}
		depth = max(st.depth-roundDiv(diff, step), 0)
	}

	return depthState{seen: true, width: width, depth: depth, wasFile: isFile}, depth, found
}

// roundDiv returns n/d rounded half up for non-negative n and positive d.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}
