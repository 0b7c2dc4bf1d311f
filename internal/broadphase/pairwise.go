package broadphase

import "iter"

// Pair holds two colliding boxes. The order of A and B carries no meaning
// beyond being stable within a single sequence.
type Pair struct {
	A *Box
	B *Box
}

// CheckExhaustive tests every ordered pair of distinct boxes and yields both
// directions of each collision. At k boxes it spends k*(k-1) comparisons, so
// it exists purely as a correctness oracle for the cheaper checks; nothing in
// the query path calls it.
func CheckExhaustive(boxes []*Box) iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		for _, a := range boxes {
			for _, b := range boxes {
				if a == b {
					continue
				}
				if a.Overlaps(b) && !yield(Pair{A: a, B: b}) {
					return
				}
			}
		}
	}
}

// CheckDeduplicated yields each unordered colliding pair exactly once using
// k*(k-1)/2 comparisons. The inner loop starts one past the outer index, so
// self pairs and mirrored pairs are excluded structurally rather than through
// a seen set. The sequence is lazy; consumers may stop early.
func CheckDeduplicated(boxes []*Box) iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		emitDeduplicated(boxes, yield)
	}
}

// emitDeduplicated is the shared i<j scan. It reports false when the consumer
// stopped the iteration.
func emitDeduplicated(boxes []*Box, yield func(Pair) bool) bool {
	for i := 0; i < len(boxes); i++ {
		a := boxes[i]
		for j := i + 1; j < len(boxes); j++ {
			b := boxes[j]
			if a.Overlaps(b) && !yield(Pair{A: a, B: b}) {
				return false
			}
		}
	}
	return true
}
