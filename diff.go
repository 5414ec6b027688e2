package s7ua

import "reflect"

// valuesDiffer implements the read cycle's change-detection rule
// (spec.md §4.6): when both values are sequences of equal length,
// compare element-wise and report a difference on the first mismatch;
// otherwise fall back to structural equality. reflect.DeepEqual already
// recurses element-wise on slices, but the explicit length check below
// lets an array that merely shrank or grew short-circuit on the part of
// the rule spec.md states separately ("any mismatch" vs "otherwise").
func valuesDiffer(oldVal, newVal any) bool {
	oldSeq, oldIsSeq := oldVal.([]any)
	newSeq, newIsSeq := newVal.([]any)

	if oldIsSeq && newIsSeq {
		if len(oldSeq) != len(newSeq) {
			return true
		}
		for i := range oldSeq {
			if valuesDiffer(oldSeq[i], newSeq[i]) {
				return true
			}
		}
		return false
	}
	if oldIsSeq != newIsSeq {
		return true
	}

	return !reflect.DeepEqual(oldVal, newVal)
}
