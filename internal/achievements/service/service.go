// Package service grants achievements. Grants are idempotent per
// (player, achievement): a duplicate is a no-op that returns no error and
// publishes nothing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"arcadia/internal/achievements/evaluator"
	achievementevents "arcadia/internal/achievements/events"
	"arcadia/internal/achievements/metrics"
	"arcadia/internal/achievements/models"
	"arcadia/internal/achievements/ports"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/platform/tx"
)

type Service struct {
	catalog    ports.AchievementStore
	grants     ports.UserAchievementStore
	stats      ports.StatisticsStore
	tx         tx.Runner
	publisher  events.Publisher
	evaluators evaluator.Set
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithEvaluators replaces the built-in evaluator set.
func WithEvaluators(set evaluator.Set) Option {
	return func(s *Service) {
		if len(set) > 0 {
			s.evaluators = set
		}
	}
}

func New(catalog ports.AchievementStore, grants ports.UserAchievementStore, stats ports.StatisticsStore, runner tx.Runner, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		catalog:    catalog,
		grants:     grants,
		stats:      stats,
		tx:         runner,
		publisher:  events.NewRecorder(publisher),
		evaluators: evaluator.Default(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefineAchievement adds a locally evaluated entry to a game's catalog.
func (s *Service) DefineAchievement(ctx context.Context, def models.Definition) (*models.Achievement, error) {
	a, err := models.NewAchievement(domain.NewAchievementID(), def, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.catalog.Save(ctx, a)
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save achievement")
	}
	s.logger.InfoContext(ctx, "achievement defined", "achievement_id", a.ID, "game_id", a.GameID, "name", a.Name)
	return a, nil
}

// Grant gives achievementID to player. The bool reports whether a new
// grant was made.
func (s *Service) Grant(ctx context.Context, player domain.PlayerID, achievementID domain.AchievementID) (*models.UserAchievement, bool, error) {
	var (
		ua      *models.UserAchievement
		granted bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.catalog.FindByID(ctx, achievementID)
		if err != nil {
			return translate(err, "achievement not found", "failed to load achievement")
		}
		ua, granted, err = s.grant(ctx, player, a)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ua, granted, nil
}

// RegisterThirdParty returns the catalog entry for (game, code), creating
// it on first sight.
func (s *Service) RegisterThirdParty(ctx context.Context, game domain.GameID, code, name, description string) (*models.Achievement, error) {
	candidate, err := models.NewThirdPartyAchievement(domain.NewAchievementID(), game, code, name, description, s.now())
	if err != nil {
		return nil, err
	}
	var out *models.Achievement
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.catalog.FindByGameAndCode(ctx, game, candidate.Code)
		switch {
		case err == nil:
			out = existing
			return nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up achievement")
		}
		if err := s.catalog.Save(ctx, candidate); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "achievement code registered concurrently")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save achievement")
		}
		s.logger.InfoContext(ctx, "third-party achievement registered", "achievement_id", candidate.ID, "game_id", game, "code", candidate.Code)
		out = candidate
		return nil
	})
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		// Lost a registration race: the winner's row is the entry.
		existing, findErr := s.catalog.FindByGameAndCode(ctx, game, candidate.Code)
		if findErr != nil {
			return nil, translate(findErr, "achievement not found", "failed to look up achievement")
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GrantThirdParty grants the registered achievement (game, code) to player.
func (s *Service) GrantThirdParty(ctx context.Context, game domain.GameID, player domain.PlayerID, code string) (*models.UserAchievement, bool, error) {
	var (
		ua      *models.UserAchievement
		granted bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.catalog.FindByGameAndCode(ctx, game, code)
		if err != nil {
			return translate(err, "third-party achievement not registered", "failed to look up achievement")
		}
		ua, granted, err = s.grant(ctx, player, a)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ua, granted, nil
}

func (s *Service) grant(ctx context.Context, player domain.PlayerID, a *models.Achievement) (*models.UserAchievement, bool, error) {
	held, err := s.grants.ExistsByPlayerAndAchievement(ctx, player, a.ID)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check achievement")
	}
	if held {
		s.metrics.IncrementDuplicate()
		s.logger.DebugContext(ctx, "achievement already held", "player_id", player, "achievement_id", a.ID)
		return nil, false, nil
	}

	ua := &models.UserAchievement{
		ID:            domain.NewUserAchievementID(),
		PlayerID:      player,
		AchievementID: a.ID,
		UnlockedAt:    s.now(),
	}
	if err := s.grants.Save(ctx, ua); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementDuplicate()
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save achievement grant")
	}
	s.publisher.Publish(ctx, achievementevents.AchievementAcquiredEvent{
		PlayerID:      player,
		AchievementID: a.ID,
		GameID:        a.GameID,
		Name:          a.Name,
		UnlockedAt:    ua.UnlockedAt,
	})
	s.metrics.IncrementGranted()
	s.logger.InfoContext(ctx, "achievement unlocked", "player_id", player, "achievement_id", a.ID, "name", a.Name)
	return ua, true, nil
}

// Catalog lists catalog entries, optionally for one game.
func (s *Service) Catalog(ctx context.Context, game *domain.GameID) ([]*models.Achievement, error) {
	var (
		list []*models.Achievement
		err  error
	)
	if game != nil {
		list, err = s.catalog.FindByGame(ctx, *game)
	} else {
		list, err = s.catalog.FindAll(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list achievements")
	}
	return list, nil
}

// PlayerAchievements lists what player holds, newest first, optionally for
// one game.
func (s *Service) PlayerAchievements(ctx context.Context, player domain.PlayerID, game *domain.GameID) ([]models.PlayerAchievement, error) {
	held, err := s.grants.ListByPlayer(ctx, player)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list player achievements")
	}
	out := make([]models.PlayerAchievement, 0, len(held))
	for _, ua := range held {
		a, err := s.catalog.FindByID(ctx, ua.AchievementID)
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "grant references unknown achievement", "achievement_id", ua.AchievementID)
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load achievement")
		}
		if game != nil && a.GameID != *game {
			continue
		}
		out = append(out, models.PlayerAchievement{Achievement: a, UnlockedAt: ua.UnlockedAt})
	}
	return out, nil
}

func gameKey(lobby domain.LobbyID, startedAt *time.Time) string {
	if startedAt == nil {
		return ""
	}
	return lobby.String() + "@" + strconv.FormatInt(startedAt.UnixNano(), 10)
}

func translate(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
