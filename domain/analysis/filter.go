package analysis

// Scored is anything carrying a confidence score in [0, 1].
type Scored interface {
	ConfidenceScore() float64
}

// FilterByConfidence partitions items by confidence >= threshold
// (inclusive). The partition is stable: relative order within kept and
// dropped matches the input order, and every input element lands in
// exactly one partition.
func FilterByConfidence[T Scored](items []T, threshold float64) (kept, dropped []T) {
	for _, item := range items {
		if item.ConfidenceScore() >= threshold {
			kept = append(kept, item)
		} else {
			dropped = append(dropped, item)
		}
	}
	return kept, dropped
}
