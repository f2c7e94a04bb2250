package room

import "sort"

// Rank orders the pending queue: unplayed songs only, highest vote score
// first, ties broken by ascending id (submission order). The input is not
// modified. The ordering is deterministic: every participant recomputing
// the ranking from the same songs and votes gets the same order.
func Rank(songs []Song, votes map[int]map[string]VoteType) []Song {
	ranked := make([]Song, 0, len(songs))
	for _, song := range songs {
		if song.IsPlayed {
			continue
		}

		song.Score = Score(votes[song.ID])
		ranked = append(ranked, song)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}

// Score derives a song's tally from its vote rows: upvotes minus downvotes.
// Tallies are never stored.
func Score(votes map[string]VoteType) int {
	score := 0
	for _, voteType := range votes {
		switch voteType {
		case VoteUp:
			score++
		case VoteDown:
			score--
		}
	}

	return score
}
