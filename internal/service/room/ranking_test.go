package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(nil))
	assert.Equal(t, 0, Score(map[string]VoteType{}))
	assert.Equal(t, 2, Score(map[string]VoteType{"a": VoteUp, "b": VoteUp}))
	assert.Equal(t, -1, Score(map[string]VoteType{"a": VoteUp, "b": VoteDown, "c": VoteDown}))
}

func TestRank(t *testing.T) {
	songs := []Song{
		{ID: 1},
		{ID: 2},
		{ID: 3},
		{ID: 4, IsPlayed: true},
	}
	votes := map[int]map[string]VoteType{
		1: {"a": VoteDown},
		2: {"a": VoteUp, "b": VoteUp},
		3: {},
		4: {"a": VoteUp, "b": VoteUp, "c": VoteUp},
	}

	ranked := Rank(songs, votes)
	require.Len(t, ranked, 3)
	assert.Equal(t, 2, ranked[0].ID)
	assert.Equal(t, 3, ranked[1].ID)
	assert.Equal(t, 1, ranked[2].ID)
	assert.Equal(t, 2, ranked[0].Score)
	assert.Equal(t, -1, ranked[2].Score)

	// input slice untouched
	assert.Equal(t, 0, songs[0].Score)
}

func TestRankTiesBreakBySubmissionOrder(t *testing.T) {
	songs := []Song{{ID: 3}, {ID: 1}, {ID: 2}}
	votes := map[int]map[string]VoteType{
		1: {"a": VoteUp},
		2: {"b": VoteUp},
		3: {"c": VoteUp},
	}

	ranked := Rank(songs, votes)
	require.Len(t, ranked, 3)
	assert.Equal(t, 1, ranked[0].ID)
	assert.Equal(t, 2, ranked[1].ID)
	assert.Equal(t, 3, ranked[2].ID)
}

func TestRankDeterministic(t *testing.T) {
	songs := []Song{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	votes := map[int]map[string]VoteType{
		1: {"a": VoteUp},
		2: {"a": VoteUp},
		3: {"a": VoteDown},
	}

	first := Rank(songs, votes)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Rank(songs, votes))
	}
}
