// Package repository binds the domain entities to typed store collections.
// Every entity repository is a Collection configuration (the collection
// name, the ID accessors, and for matches a polymorphic decode hook), so
// the same set works unchanged against the local, realtime, and memory
// backends.
package repository

import (
	"github.com/matchday/scorekeeper/internal/domain/cohost"
	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/playerstats"
	"github.com/matchday/scorekeeper/internal/domain/synclog"
	"github.com/matchday/scorekeeper/internal/domain/team"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// Collection names are shared by both backends, so a document written
// offline lands in the same collection when it syncs online.
const (
	CollectionMatches           = "matches"
	CollectionInnings           = "innings"
	CollectionOvers             = "overs"
	CollectionBalls             = "balls"
	CollectionFootballEvents    = "footballEvents"
	CollectionTeams             = "teams"
	CollectionPlayers           = "players"
	CollectionTournaments       = "tournaments"
	CollectionTournamentTeams   = "tournamentTeams"
	CollectionTournamentMatches = "tournamentMatches"
	CollectionStages            = "stages"
	CollectionSeries            = "series"
	CollectionSyncLogs          = "syncLogs"
	CollectionCoHosts           = "coHosts"
	CollectionPlayerStats       = "playerStats"
)

// Collections is the full typed surface over one backend.
type Collections struct {
	Matches           *store.Collection[match.Match]
	Innings           *store.Collection[match.Innings]
	Overs             *store.Collection[match.Over]
	Balls             *store.Collection[event.Ball]
	FootballEvents    *store.Collection[event.FootballEvent]
	Teams             *store.Collection[team.Team]
	Players           *store.Collection[team.Player]
	Tournaments       *store.Collection[tournament.Tournament]
	TournamentTeams   *store.Collection[tournament.Team]
	TournamentMatches *store.Collection[tournament.Match]
	Stages            *store.Collection[tournament.Stage]
	Series            *store.Collection[tournament.Series]
	SyncLogs          *store.Collection[synclog.Log]
	CoHosts           *store.Collection[cohost.CoHost]
	PlayerStats       *store.Collection[playerstats.Statistics]
}

func New(backend store.Backend, logger *logging.Logger) *Collections {
	return &Collections{
		Matches:           Matches(backend, logger),
		Innings:           Innings(backend, logger),
		Overs:             Overs(backend, logger),
		Balls:             Balls(backend, logger),
		FootballEvents:    FootballEvents(backend, logger),
		Teams:             Teams(backend, logger),
		Players:           Players(backend, logger),
		Tournaments:       Tournaments(backend, logger),
		TournamentTeams:   TournamentTeams(backend, logger),
		TournamentMatches: TournamentMatches(backend, logger),
		Stages:            Stages(backend, logger),
		Series:            Series(backend, logger),
		SyncLogs:          SyncLogs(backend, logger),
		CoHosts:           CoHosts(backend, logger),
		PlayerStats:       PlayerStats(backend, logger),
	}
}

// Matches decodes polymorphically on the sport discriminator. Documents
// with an unknown sport read as absent so a stale client never crashes on a
// sport it does not know.
func Matches(backend store.Backend, logger *logging.Logger) *store.Collection[match.Match] {
	return store.NewCollection(backend, store.Config[match.Match]{
		Name:   CollectionMatches,
		ID:     func(m match.Match) string { return m.MatchID() },
		WithID: func(m match.Match, id string) match.Match { return m.WithID(id) },
		Decode: match.Decode,
		Logger: logger,
	})
}

func Innings(backend store.Backend, logger *logging.Logger) *store.Collection[match.Innings] {
	return store.NewCollection(backend, store.Config[match.Innings]{
		Name:   CollectionInnings,
		ID:     func(i match.Innings) string { return i.ID },
		WithID: func(i match.Innings, id string) match.Innings { i.ID = id; return i },
		Logger: logger,
	})
}

func Overs(backend store.Backend, logger *logging.Logger) *store.Collection[match.Over] {
	return store.NewCollection(backend, store.Config[match.Over]{
		Name:   CollectionOvers,
		ID:     func(o match.Over) string { return o.ID },
		WithID: func(o match.Over, id string) match.Over { o.ID = id; return o },
		Logger: logger,
	})
}

func Balls(backend store.Backend, logger *logging.Logger) *store.Collection[event.Ball] {
	return store.NewCollection(backend, store.Config[event.Ball]{
		Name:   CollectionBalls,
		ID:     func(b event.Ball) string { return b.ID },
		WithID: func(b event.Ball, id string) event.Ball { b.ID = id; return b },
		Logger: logger,
	})
}

func FootballEvents(backend store.Backend, logger *logging.Logger) *store.Collection[event.FootballEvent] {
	return store.NewCollection(backend, store.Config[event.FootballEvent]{
		Name:   CollectionFootballEvents,
		ID:     func(e event.FootballEvent) string { return e.ID },
		WithID: func(e event.FootballEvent, id string) event.FootballEvent { e.ID = id; return e },
		Logger: logger,
	})
}

func Teams(backend store.Backend, logger *logging.Logger) *store.Collection[team.Team] {
	return store.NewCollection(backend, store.Config[team.Team]{
		Name:   CollectionTeams,
		ID:     func(t team.Team) string { return t.ID },
		WithID: func(t team.Team, id string) team.Team { t.ID = id; return t },
		Logger: logger,
	})
}

func Players(backend store.Backend, logger *logging.Logger) *store.Collection[team.Player] {
	return store.NewCollection(backend, store.Config[team.Player]{
		Name:   CollectionPlayers,
		ID:     func(p team.Player) string { return p.ID },
		WithID: func(p team.Player, id string) team.Player { p.ID = id; return p },
		Logger: logger,
	})
}

func Tournaments(backend store.Backend, logger *logging.Logger) *store.Collection[tournament.Tournament] {
	return store.NewCollection(backend, store.Config[tournament.Tournament]{
		Name:   CollectionTournaments,
		ID:     func(t tournament.Tournament) string { return t.ID },
		WithID: func(t tournament.Tournament, id string) tournament.Tournament { t.ID = id; return t },
		Logger: logger,
	})
}

func TournamentTeams(backend store.Backend, logger *logging.Logger) *store.Collection[tournament.Team] {
	return store.NewCollection(backend, store.Config[tournament.Team]{
		Name:   CollectionTournamentTeams,
		ID:     func(t tournament.Team) string { return t.ID },
		WithID: func(t tournament.Team, id string) tournament.Team { t.ID = id; return t },
		Logger: logger,
	})
}

func TournamentMatches(backend store.Backend, logger *logging.Logger) *store.Collection[tournament.Match] {
	return store.NewCollection(backend, store.Config[tournament.Match]{
		Name:   CollectionTournamentMatches,
		ID:     func(m tournament.Match) string { return m.ID },
		WithID: func(m tournament.Match, id string) tournament.Match { m.ID = id; return m },
		Logger: logger,
	})
}

func Stages(backend store.Backend, logger *logging.Logger) *store.Collection[tournament.Stage] {
	return store.NewCollection(backend, store.Config[tournament.Stage]{
		Name:   CollectionStages,
		ID:     func(s tournament.Stage) string { return s.ID },
		WithID: func(s tournament.Stage, id string) tournament.Stage { s.ID = id; return s },
		Logger: logger,
	})
}

func Series(backend store.Backend, logger *logging.Logger) *store.Collection[tournament.Series] {
	return store.NewCollection(backend, store.Config[tournament.Series]{
		Name:   CollectionSeries,
		ID:     func(s tournament.Series) string { return s.ID },
		WithID: func(s tournament.Series, id string) tournament.Series { s.ID = id; return s },
		Logger: logger,
	})
}

func SyncLogs(backend store.Backend, logger *logging.Logger) *store.Collection[synclog.Log] {
	return store.NewCollection(backend, store.Config[synclog.Log]{
		Name:   CollectionSyncLogs,
		ID:     func(l synclog.Log) string { return l.ID },
		WithID: func(l synclog.Log, id string) synclog.Log { l.ID = id; return l },
		Logger: logger,
	})
}

func CoHosts(backend store.Backend, logger *logging.Logger) *store.Collection[cohost.CoHost] {
	return store.NewCollection(backend, store.Config[cohost.CoHost]{
		Name:   CollectionCoHosts,
		ID:     func(c cohost.CoHost) string { return c.ID },
		WithID: func(c cohost.CoHost, id string) cohost.CoHost { c.ID = id; return c },
		Logger: logger,
	})
}

func PlayerStats(backend store.Backend, logger *logging.Logger) *store.Collection[playerstats.Statistics] {
	return store.NewCollection(backend, store.Config[playerstats.Statistics]{
		Name:   CollectionPlayerStats,
		ID:     func(s playerstats.Statistics) string { return s.ID },
		WithID: func(s playerstats.Statistics, id string) playerstats.Statistics { s.ID = id; return s },
		Logger: logger,
	})
}
