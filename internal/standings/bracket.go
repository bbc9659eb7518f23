package standings

import (
	"math/rand"

	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
)

var ErrNotEnoughTeams = errors.New("bracket needs at least two teams")

// BracketStrategy emits the pairings of a knockout round. Matches come
// back with MatchOrder assigned and without IDs; persistence allocates
// those. An empty AwayTeamID marks a bye.
type BracketStrategy interface {
	Pair(tournamentID string, rows []tournament.Team) ([]tournament.Match, error)
}

// RandomBracket shuffles the field and pairs neighbours. The source is
// injected so draws are reproducible in tests and replayable from a seed.
type RandomBracket struct {
	Rand *rand.Rand
}

func (b RandomBracket) Pair(tournamentID string, rows []tournament.Team) ([]tournament.Match, error) {
	if len(rows) < 2 {
		return nil, ErrNotEnoughTeams
	}

	field := append([]tournament.Team(nil), rows...)
	b.Rand.Shuffle(len(field), func(i, j int) {
		field[i], field[j] = field[j], field[i]
	})

	out := make([]tournament.Match, 0, (len(field)+1)/2)
	for i := 0; i+1 < len(field); i += 2 {
		out = append(out, tournament.Match{
			TournamentID: tournamentID,
			HomeTeamID:   field[i].TeamID,
			AwayTeamID:   field[i+1].TeamID,
			MatchOrder:   len(out) + 1,
		})
	}
	if len(field)%2 == 1 {
		// odd field: the leftover side advances on a bye
		out = append(out, tournament.Match{
			TournamentID: tournamentID,
			HomeTeamID:   field[len(field)-1].TeamID,
			MatchOrder:   len(out) + 1,
		})
	}
	return out, nil
}

// SeededBracket ranks the field by the standings order and pairs top
// against bottom. When the field is not a power of two, the top seeds take
// byes until the next round is full.
type SeededBracket struct {
	Sport match.Sport
}

func (b SeededBracket) Pair(tournamentID string, rows []tournament.Team) ([]tournament.Match, error) {
	if len(rows) < 2 {
		return nil, ErrNotEnoughTeams
	}

	seeds := Sort(rows, b.Sport)
	size := nextPowerOfTwo(len(seeds))
	byes := size - len(seeds)

	out := make([]tournament.Match, 0, size/2)
	for i := 0; i < byes; i++ {
		out = append(out, tournament.Match{
			TournamentID: tournamentID,
			HomeTeamID:   seeds[i].TeamID,
			MatchOrder:   len(out) + 1,
		})
	}

	rest := seeds[byes:]
	for i, j := 0, len(rest)-1; i < j; i, j = i+1, j-1 {
		out = append(out, tournament.Match{
			TournamentID: tournamentID,
			HomeTeamID:   rest[i].TeamID,
			AwayTeamID:   rest[j].TeamID,
			MatchOrder:   len(out) + 1,
		})
	}
	return out, nil
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// RoundRobin schedules every pair once using the circle method. With an odd
// field one team sits out each round; sit-outs are simply not emitted.
func RoundRobin(tournamentID string, teamIDs []string) []tournament.Match {
	field := append([]string(nil), teamIDs...)
	if len(field) < 2 {
		return nil
	}
	if len(field)%2 == 1 {
		field = append(field, "") // phantom opponent = bye
	}

	n := len(field)
	out := make([]tournament.Match, 0, (n-1)*n/2)
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			home, away := field[i], field[n-1-i]
			if home == "" || away == "" {
				continue
			}
			out = append(out, tournament.Match{
				TournamentID: tournamentID,
				HomeTeamID:   home,
				AwayTeamID:   away,
				MatchOrder:   len(out) + 1,
			})
		}
		// rotate all but the first position
		last := field[n-1]
		copy(field[2:], field[1:n-1])
		field[1] = last
	}
	return out
}
