package search

import "sort"

// FusedResult is one entry of a reciprocal-rank-fused ranking.
// LexRank and VecRank are 1-based source ranks, 0 when the id was
// absent from that source.
type FusedResult struct {
	ID      string
	Score   float64
	LexRank int
	VecRank int
}

// Fuse merges two ranked id lists with reciprocal rank fusion:
//
//	score(id) = sum over sources of 1/(kConstant + rank)
//
// where a source contributes nothing for an absent id. BM25 and cosine
// scores live on incomparable scales; rank fusion sidesteps calibrating
// them. The result is sorted by score descending, ties broken by id so
// the ordering is deterministic, and truncated to limit (limit <= 0
// means no truncation).
func Fuse(lexical, vector []string, kConstant, limit int) []FusedResult {
	if kConstant <= 0 {
		kConstant = DefaultOptions().RRFConstant
	}

	fused := make(map[string]*FusedResult, len(lexical)+len(vector))

	for i, id := range lexical {
		rank := i + 1
		fused[id] = &FusedResult{
			ID:      id,
			Score:   1.0 / float64(kConstant+rank),
			LexRank: rank,
		}
	}

	for i, id := range vector {
		rank := i + 1
		if r, ok := fused[id]; ok {
			r.Score += 1.0 / float64(kConstant+rank)
			r.VecRank = rank
		} else {
			fused[id] = &FusedResult{
				ID:      id,
				Score:   1.0 / float64(kConstant+rank),
				VecRank: rank,
			}
		}
	}

	out := make([]FusedResult, 0, len(fused))
	for _, r := range fused {
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
