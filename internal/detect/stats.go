package detect

import "github.com/ppiankov/dupdetect/internal/model"

// Summarize aggregates matcher output. Empty input yields zero values.
func Summarize(pairs []model.DuplicatePair) model.Statistics {
	if len(pairs) == 0 {
		return model.Statistics{}
	}

	origins := make(map[string]struct{})
	records := make(map[string]struct{})
	byElapsed := make(map[model.ElapsedCategory]int)

	stats := model.Statistics{
		TotalPairs:    len(pairs),
		MinSimilarity: pairs[0].Similarity,
	}
	sum := 0
	for _, p := range pairs {
		origins[p.Origin] = struct{}{}
		records[p.Left.Identifier] = struct{}{}
		records[p.Right.Identifier] = struct{}{}
		byElapsed[p.ElapsedCategory]++

		sum += p.Similarity
		if p.Similarity > stats.MaxSimilarity {
			stats.MaxSimilarity = p.Similarity
		}
		if p.Similarity < stats.MinSimilarity {
			stats.MinSimilarity = p.Similarity
		}
	}

	stats.AffectedOrigins = len(origins)
	stats.UniqueRecords = len(records)
	stats.AverageSimilarity = float64(sum) / float64(len(pairs))
	stats.ByElapsed = byElapsed
	return stats
}
