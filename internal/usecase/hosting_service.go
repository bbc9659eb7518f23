package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchday/scorekeeper/internal/domain/cohost"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/team"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// HostingService owns the hosted-entity lifecycle: creating matches,
// tournaments and series, choosing their canonical store, issuing share
// links, and managing co-hosts. The IsOnline flag on the entity decides
// where the primary record lives; share links only exist online because
// resolution is a realtime-store lookup.
type HostingService struct {
	local  *repository.Collections
	remote *repository.Collections
	writer *DocWriter
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewHostingService(
	local *repository.Collections,
	remote *repository.Collections,
	writer *DocWriter,
	ids id.Generator,
	logger *logging.Logger,
) *HostingService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HostingService{
		local:  local,
		remote: remote,
		writer: writer,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

type TeamSelection struct {
	TeamID    string
	TeamName  string
	IsHome    bool
	PlayingXI []string
	CaptainID string
	KeeperID  string
}

func (t TeamSelection) toMatchTeam() team.MatchTeam {
	return team.MatchTeam{
		TeamID:    t.TeamID,
		TeamName:  t.TeamName,
		IsHome:    t.IsHome,
		PlayingXI: t.PlayingXI,
		CaptainID: t.CaptainID,
		KeeperID:  t.KeeperID,
	}
}

type CreateCricketMatchInput struct {
	Name         string
	Venue        string
	MatchDate    time.Time
	TournamentID string
	SeriesID     string
	IsOnline     bool
	Config       match.CricketConfig
	Teams        []TeamSelection
}

type CreateFootballMatchInput struct {
	Name         string
	Venue        string
	MatchDate    time.Time
	TournamentID string
	SeriesID     string
	IsOnline     bool
	Config       match.FootballConfig
	Teams        []TeamSelection
}

func (s *HostingService) CreateCricketMatch(ctx context.Context, userID string, in CreateCricketMatchInput) (match.CricketMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.CreateCricketMatch")
	defer span.End()

	header, teams, err := s.newHostedMatch(userID, in.Name, in.IsOnline, match.SportCricket, in.Teams)
	if err != nil {
		return match.CricketMatch{}, err
	}
	if in.Config.OversPerInnings <= 0 {
		return match.CricketMatch{}, fmt.Errorf("%w: overs per innings must be positive", ErrInvalidInput)
	}

	header.Venue = in.Venue
	header.MatchDate = in.MatchDate
	header.TournamentID = in.TournamentID
	header.SeriesID = in.SeriesID

	m := match.CricketMatch{
		Header: header,
		Config: in.Config,
		Teams:  teams,
	}
	if err := s.writer.Put(ctx, m.IsOnline, repository.CollectionMatches, m.ID, m); err != nil {
		return match.CricketMatch{}, fmt.Errorf("persist match: %w", err)
	}

	s.logger.InfoContext(ctx, "cricket match created", "matchId", m.ID, "online", m.IsOnline)
	return m, nil
}

func (s *HostingService) CreateFootballMatch(ctx context.Context, userID string, in CreateFootballMatchInput) (match.FootballMatch, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.CreateFootballMatch")
	defer span.End()

	header, teams, err := s.newHostedMatch(userID, in.Name, in.IsOnline, match.SportFootball, in.Teams)
	if err != nil {
		return match.FootballMatch{}, err
	}
	if in.Config.HalfMinutes <= 0 {
		in.Config.HalfMinutes = 45
	}

	header.Venue = in.Venue
	header.MatchDate = in.MatchDate
	header.TournamentID = in.TournamentID
	header.SeriesID = in.SeriesID

	m := match.FootballMatch{
		Header: header,
		Config: in.Config,
		Teams:  teams,
		Period: match.PeriodFirstHalf,
	}
	if err := s.writer.Put(ctx, m.IsOnline, repository.CollectionMatches, m.ID, m); err != nil {
		return match.FootballMatch{}, fmt.Errorf("persist match: %w", err)
	}

	s.logger.InfoContext(ctx, "football match created", "matchId", m.ID, "online", m.IsOnline)
	return m, nil
}

func (s *HostingService) newHostedMatch(userID, name string, online bool, sport match.Sport, selections []TeamSelection) (match.Header, []team.MatchTeam, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return match.Header{}, nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return match.Header{}, nil, fmt.Errorf("%w: match name is required", ErrInvalidInput)
	}
	if len(selections) != 2 {
		return match.Header{}, nil, fmt.Errorf("%w: a match needs exactly two teams", ErrInvalidInput)
	}
	if selections[0].TeamID == "" || selections[1].TeamID == "" || selections[0].TeamID == selections[1].TeamID {
		return match.Header{}, nil, fmt.Errorf("%w: two distinct team ids required", ErrInvalidInput)
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return match.Header{}, nil, fmt.Errorf("allocate match id: %w", err)
	}

	header := match.Header{
		ID:         docID,
		Name:       strings.TrimSpace(name),
		HostUserID: userID,
		SportID:    sport,
		Status:     match.StatusScheduled,
		IsOnline:   online,
	}
	if online {
		link, err := id.NewShareCode()
		if err != nil {
			return match.Header{}, nil, fmt.Errorf("allocate share code: %w", err)
		}
		header.VisibilityLink = link
	}

	teams := make([]team.MatchTeam, 0, len(selections))
	for _, sel := range selections {
		teams = append(teams, sel.toMatchTeam())
	}
	return header, teams, nil
}

type CreateTournamentInput struct {
	Name     string
	Sport    match.Sport
	Type     tournament.Type
	Points   tournament.PointsConfig
	IsOnline bool
}

func (s *HostingService) CreateTournament(ctx context.Context, userID string, in CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.CreateTournament")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament name is required", ErrInvalidInput)
	}
	if in.Sport != match.SportCricket && in.Sport != match.SportFootball {
		return tournament.Tournament{}, fmt.Errorf("%w: unknown sport %q", ErrInvalidInput, in.Sport)
	}
	if in.Type == "" {
		in.Type = tournament.TypeLeague
	}
	if in.Points == (tournament.PointsConfig{}) {
		if in.Sport == match.SportCricket {
			in.Points = tournament.DefaultCricketPoints()
		} else {
			in.Points = tournament.DefaultFootballPoints()
		}
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("allocate tournament id: %w", err)
	}

	t := tournament.Tournament{
		ID:         docID,
		Name:       strings.TrimSpace(in.Name),
		HostUserID: userID,
		SportID:    in.Sport,
		Type:       in.Type,
		Status:     "UPCOMING",
		Points:     in.Points,
		IsOnline:   in.IsOnline,
		StartDate:  s.now().UTC(),
	}
	if in.IsOnline {
		link, err := id.NewShareCode()
		if err != nil {
			return tournament.Tournament{}, fmt.Errorf("allocate share code: %w", err)
		}
		t.VisibilityLink = link
	}

	if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionTournaments, t.ID, t); err != nil {
		return tournament.Tournament{}, fmt.Errorf("persist tournament: %w", err)
	}

	s.logger.InfoContext(ctx, "tournament created", "tournamentId", t.ID, "sport", string(t.SportID))
	return t, nil
}

type CreateSeriesInput struct {
	Name     string
	Sport    match.Sport
	TeamAID  string
	TeamBID  string
	BestOf   int
	IsOnline bool
}

func (s *HostingService) CreateSeries(ctx context.Context, userID string, in CreateSeriesInput) (tournament.Series, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.CreateSeries")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return tournament.Series{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return tournament.Series{}, fmt.Errorf("%w: series name is required", ErrInvalidInput)
	}
	if in.TeamAID == "" || in.TeamBID == "" || in.TeamAID == in.TeamBID {
		return tournament.Series{}, fmt.Errorf("%w: two distinct team ids required", ErrInvalidInput)
	}
	if in.BestOf < 1 || in.BestOf%2 == 0 {
		return tournament.Series{}, fmt.Errorf("%w: best-of must be a positive odd number", ErrInvalidInput)
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return tournament.Series{}, fmt.Errorf("allocate series id: %w", err)
	}

	sr := tournament.Series{
		ID:         docID,
		Name:       strings.TrimSpace(in.Name),
		HostUserID: userID,
		SportID:    in.Sport,
		TeamAID:    in.TeamAID,
		TeamBID:    in.TeamBID,
		BestOf:     in.BestOf,
		Status:     "UPCOMING",
		IsOnline:   in.IsOnline,
	}
	if in.IsOnline {
		link, err := id.NewShareCode()
		if err != nil {
			return tournament.Series{}, fmt.Errorf("allocate share code: %w", err)
		}
		sr.VisibilityLink = link
	}

	if err := s.writer.Put(ctx, sr.IsOnline, repository.CollectionSeries, sr.ID, sr); err != nil {
		return tournament.Series{}, fmt.Errorf("persist series: %w", err)
	}
	return sr, nil
}

// MatchByShareLink resolves a viewer's share code against the realtime
// store. Offline matches have no link, so the local store is never
// consulted.
func (s *HostingService) MatchByShareLink(ctx context.Context, code string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.MatchByShareLink")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: share code is required", ErrInvalidInput)
	}
	if s.remote == nil {
		return nil, fmt.Errorf("%w: realtime store not configured", ErrDependencyUnavailable)
	}

	found, err := s.remote.Matches.List(ctx, store.NewQuery().Eq("visibilityLink", code))
	if err != nil {
		return nil, fmt.Errorf("resolve match share link: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: share code %s", ErrNotFound, code)
	}
	return found[0], nil
}

// TournamentByShareLink resolves a tournament share code the same way.
func (s *HostingService) TournamentByShareLink(ctx context.Context, code string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.TournamentByShareLink")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: share code is required", ErrInvalidInput)
	}
	if s.remote == nil {
		return tournament.Tournament{}, fmt.Errorf("%w: realtime store not configured", ErrDependencyUnavailable)
	}

	found, err := s.remote.Tournaments.List(ctx, store.NewQuery().Eq("visibilityLink", code))
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("resolve tournament share link: %w", err)
	}
	if len(found) == 0 {
		return tournament.Tournament{}, fmt.Errorf("%w: share code %s", ErrNotFound, code)
	}
	return found[0], nil
}

type AddCoHostInput struct {
	EntityID   string
	EntityType string
	UserID     string
	Permission cohost.Permission
}

func (s *HostingService) AddCoHost(ctx context.Context, actorID string, in AddCoHostInput) (cohost.CoHost, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.AddCoHost")
	defer span.End()

	if in.UserID == "" || in.EntityID == "" {
		return cohost.CoHost{}, fmt.Errorf("%w: user id and entity id are required", ErrInvalidInput)
	}
	switch in.Permission {
	case cohost.PermissionFullAccess, cohost.PermissionEditOnly, cohost.PermissionViewOnly:
	default:
		return cohost.CoHost{}, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, in.Permission)
	}

	hostID, online, err := s.hostedEntity(ctx, in.EntityType, in.EntityID)
	if err != nil {
		return cohost.CoHost{}, err
	}
	if err := s.requireManage(ctx, actorID, hostID, in.EntityID); err != nil {
		return cohost.CoHost{}, err
	}
	if in.UserID == hostID {
		return cohost.CoHost{}, fmt.Errorf("%w: the host cannot co-host their own entity", ErrInvalidInput)
	}

	existing, err := s.coHostRow(ctx, in.EntityID, in.UserID)
	if err != nil {
		return cohost.CoHost{}, err
	}
	if existing != nil {
		return cohost.CoHost{}, fmt.Errorf("%w: user %s already co-hosts %s", ErrInvalidInput, in.UserID, in.EntityID)
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return cohost.CoHost{}, fmt.Errorf("allocate co-host id: %w", err)
	}

	row := cohost.CoHost{
		ID:         docID,
		UserID:     in.UserID,
		EntityID:   in.EntityID,
		EntityType: in.EntityType,
		Permission: in.Permission,
		AddedBy:    actorID,
		AddedAt:    s.now().UTC(),
	}
	if err := s.writer.Put(ctx, online, repository.CollectionCoHosts, row.ID, row); err != nil {
		return cohost.CoHost{}, fmt.Errorf("persist co-host: %w", err)
	}

	s.logger.InfoContext(ctx, "co-host added",
		"entityId", in.EntityID, "userId", in.UserID, "permission", string(in.Permission))
	return row, nil
}

func (s *HostingService) RemoveCoHost(ctx context.Context, actorID, coHostID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.HostingService.RemoveCoHost")
	defer span.End()

	row, ok, err := s.local.CoHosts.Get(ctx, coHostID)
	if err != nil {
		return fmt.Errorf("get co-host: %w", err)
	}
	if !ok && s.remote != nil {
		row, ok, err = s.remote.CoHosts.Get(ctx, coHostID)
		if err != nil {
			return fmt.Errorf("get co-host: %w", err)
		}
	}
	if !ok {
		return fmt.Errorf("%w: co-host %s", ErrNotFound, coHostID)
	}

	hostID, online, err := s.hostedEntity(ctx, row.EntityType, row.EntityID)
	if err != nil {
		return err
	}
	// A co-host may always remove themselves.
	if actorID != row.UserID {
		if err := s.requireManage(ctx, actorID, hostID, row.EntityID); err != nil {
			return err
		}
	}

	if err := s.writer.Delete(ctx, online, repository.CollectionCoHosts, coHostID); err != nil {
		return fmt.Errorf("delete co-host: %w", err)
	}
	return nil
}

// CanScore reports whether userID may mutate scores on the hosted entity:
// the host always can, a co-host needs FULL_ACCESS or EDIT_ONLY.
func (s *HostingService) CanScore(ctx context.Context, userID string, h match.Header) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if userID == h.HostUserID {
		return true, nil
	}

	row, err := s.coHostRow(ctx, h.ID, userID)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	return row.Permission.CanScore(), nil
}

// requireManage checks that the actor is the host or a FULL_ACCESS co-host.
func (s *HostingService) requireManage(ctx context.Context, actorID, hostID, entityID string) error {
	if actorID == hostID {
		return nil
	}
	row, err := s.coHostRow(ctx, entityID, actorID)
	if err != nil {
		return err
	}
	if row == nil || row.Permission != cohost.PermissionFullAccess {
		return fmt.Errorf("%w: user %s cannot manage %s", ErrUnauthorized, actorID, entityID)
	}
	return nil
}

// coHostRow finds a co-host join row in whichever store holds it.
func (s *HostingService) coHostRow(ctx context.Context, entityID, userID string) (*cohost.CoHost, error) {
	q := store.NewQuery().Eq("entityId", entityID).Eq("userId", userID)

	rows, err := s.local.CoHosts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list co-hosts: %w", err)
	}
	if len(rows) == 0 && s.remote != nil {
		rows, err = s.remote.CoHosts.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list co-hosts: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// hostedEntity resolves the host user and store placement of a hosted
// entity by its co-host entity type.
func (s *HostingService) hostedEntity(ctx context.Context, entityType, entityID string) (hostID string, online bool, err error) {
	switch entityType {
	case cohost.EntityMatch:
		m, ok, err := s.getMatch(ctx, entityID)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, fmt.Errorf("%w: match %s", ErrNotFound, entityID)
		}
		h := m.HostedHeader()
		return h.HostUserID, h.IsOnline, nil
	case cohost.EntityTournament:
		t, ok, err := s.local.Tournaments.Get(ctx, entityID)
		if err != nil {
			return "", false, fmt.Errorf("get tournament: %w", err)
		}
		if !ok && s.remote != nil {
			t, ok, err = s.remote.Tournaments.Get(ctx, entityID)
			if err != nil {
				return "", false, fmt.Errorf("get tournament: %w", err)
			}
		}
		if !ok {
			return "", false, fmt.Errorf("%w: tournament %s", ErrNotFound, entityID)
		}
		return t.HostUserID, t.IsOnline, nil
	case cohost.EntitySeries:
		sr, ok, err := s.local.Series.Get(ctx, entityID)
		if err != nil {
			return "", false, fmt.Errorf("get series: %w", err)
		}
		if !ok && s.remote != nil {
			sr, ok, err = s.remote.Series.Get(ctx, entityID)
			if err != nil {
				return "", false, fmt.Errorf("get series: %w", err)
			}
		}
		if !ok {
			return "", false, fmt.Errorf("%w: series %s", ErrNotFound, entityID)
		}
		return sr.HostUserID, sr.IsOnline, nil
	default:
		return "", false, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
	}
}

func (s *HostingService) getMatch(ctx context.Context, matchID string) (match.Match, bool, error) {
	m, ok, err := s.local.Matches.Get(ctx, matchID)
	if err != nil {
		return nil, false, fmt.Errorf("get match: %w", err)
	}
	if !ok && s.remote != nil {
		m, ok, err = s.remote.Matches.Get(ctx, matchID)
		if err != nil {
			return nil, false, fmt.Errorf("get match: %w", err)
		}
	}
	return m, ok, nil
}
