package docengine

// BlockAligner pairs up the blocks of two StructuralBlock lists — the
// pristine (last-pulled) version and the current (edited) version — so
// TreeDiffer can tell matches from additions and deletions.
type BlockAligner struct{}

// Align runs the two-pass algorithm over a pristine/current pair of
// sibling block lists (the children of one matched Segment, or one
// matched TableCell):
//
//  1. Exact content match: every current block claims the first unclaimed
//     pristine block with an identical ContentHash.
//  2. Structural key match: every still-unmatched current block claims
//     the first still-unmatched pristine block with the same
//     StructuralKey (same tag/kind, different content — a "modified"
//     candidate).
//
// The result is then interleaved into current document order, with
// deletions inserted at the point their pristine index falls between two
// matched (or already-placed) pristine indices.
func (BlockAligner) Align(pristine, current []StructuralBlock) []AlignedPair {
	matchedPristine := make(map[int]bool)
	matchedCurrent := make(map[int]bool)
	var alignment []AlignedPair

	pristineByContent := make(map[string][]int)
	for i, b := range pristine {
		h := b.ContentHash()
		pristineByContent[h] = append(pristineByContent[h], i)
	}

	for j, b := range current {
		candidates := pristineByContent[b.ContentHash()]
		for _, i := range candidates {
			if !matchedPristine[i] {
				alignment = append(alignment, pair(i, j))
				matchedPristine[i] = true
				matchedCurrent[j] = true
				break
			}
		}
	}

	pristineByKey := make(map[string][]int)
	for i, b := range pristine {
		if matchedPristine[i] {
			continue
		}
		key := b.StructuralKey()
		pristineByKey[key] = append(pristineByKey[key], i)
	}

	for j, b := range current {
		if matchedCurrent[j] {
			continue
		}
		key := b.StructuralKey()
		candidates := pristineByKey[key]
		if len(candidates) > 0 {
			i := candidates[0]
			pristineByKey[key] = candidates[1:]
			alignment = append(alignment, pair(i, j))
			matchedPristine[i] = true
			matchedCurrent[j] = true
		}
	}

	return interleave(alignment, pristine, current, matchedPristine, matchedCurrent)
}

func interleave(
	alignment []AlignedPair,
	pristine, current []StructuralBlock,
	matchedPristine, matchedCurrent map[int]bool,
) []AlignedPair {
	cToP := make(map[int]int, len(alignment))
	for _, a := range alignment {
		if a.PristineIdx != nil && a.CurrentIdx != nil {
			cToP[*a.CurrentIdx] = *a.PristineIdx
		}
	}

	var deletedP []int
	for i := range pristine {
		if !matchedPristine[i] {
			deletedP = append(deletedP, i)
		}
	}

	var result []AlignedPair
	delPtr := 0
	lastMatchedP := -1

	for cIdx := range current {
		if pIdx, ok := cToP[cIdx]; ok {
			for delPtr < len(deletedP) && deletedP[delPtr] > lastMatchedP && deletedP[delPtr] < pIdx {
				result = append(result, pair(deletedP[delPtr], -1))
				delPtr++
			}
			result = append(result, pair(pIdx, cIdx))
			if pIdx > lastMatchedP {
				lastMatchedP = pIdx
			}
		} else if !matchedCurrent[cIdx] {
			result = append(result, pair(-1, cIdx))
		}
	}

	for delPtr < len(deletedP) {
		result = append(result, pair(deletedP[delPtr], -1))
		delPtr++
	}

	return result
}

// AlignRows aligns table rows by RowID, with positional fallback when the
// same id repeats: the k-th current row with a given id claims the k-th
// pristine row with that id. Unmatched pristine rows are appended as
// deletions after every current row has been considered.
func (BlockAligner) AlignRows(pristine, current []*TableRow) []AlignedPair {
	idIndices := make(map[string][]int)
	for i, row := range pristine {
		idIndices[row.RowID] = append(idIndices[row.RowID], i)
	}
	consumed := make(map[string]int)
	matchedP := make(map[int]bool)

	var alignment []AlignedPair
	for cI, row := range current {
		slots := idIndices[row.RowID]
		slot := consumed[row.RowID]
		if slot < len(slots) {
			pI := slots[slot]
			alignment = append(alignment, pair(pI, cI))
			matchedP[pI] = true
			consumed[row.RowID] = slot + 1
		} else {
			alignment = append(alignment, pair(-1, cI))
		}
	}

	for pI := range pristine {
		if !matchedP[pI] {
			alignment = append(alignment, pair(pI, -1))
		}
	}

	return alignment
}

// pair builds an AlignedPair from sentinel -1 values meaning "absent" —
// a small convenience since AlignedPair itself uses *int so zero values
// can't double as "absent".
func pair(pristineIdx, currentIdx int) AlignedPair {
	a := AlignedPair{}
	if pristineIdx >= 0 {
		i := pristineIdx
		a.PristineIdx = &i
	}
	if currentIdx >= 0 {
		j := currentIdx
		a.CurrentIdx = &j
	}
	return a
}
