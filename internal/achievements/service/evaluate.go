package service

import (
	"context"
	"errors"
	"time"

	"arcadia/internal/achievements/evaluator"
	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// EvaluationRequest describes a finished game. StartedAt, when known, gives
// the game a duration and lets a redelivered request be recognized.
type EvaluationRequest struct {
	GameID    domain.GameID
	LobbyID   domain.LobbyID
	WinnerID  *domain.PlayerID
	PlayerIDs []domain.PlayerID
	StartedAt *time.Time
}

type EvaluationResult struct {
	Granted []*models.UserAchievement
}

// EvaluateGameEnded updates each participant's statistics and grants every
// locally evaluated catalog entry they now satisfy. A failure for one
// player does not stop the others; the failures are returned together.
func (s *Service) EvaluateGameEnded(ctx context.Context, req EvaluationRequest) (EvaluationResult, error) {
	entries, err := s.catalog.FindByGame(ctx, req.GameID)
	if err != nil {
		return EvaluationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load achievements")
	}

	endedAt := s.now()
	result := models.GameResult{
		Key:     gameKey(req.LobbyID, req.StartedAt),
		Winner:  req.WinnerID,
		Players: req.PlayerIDs,
		EndedAt: endedAt,
	}
	if req.StartedAt != nil && endedAt.After(*req.StartedAt) {
		result.Duration = endedAt.Sub(*req.StartedAt)
	}

	var (
		out  EvaluationResult
		errs []error
		seen = make(map[domain.PlayerID]bool, len(req.PlayerIDs))
	)
	for _, player := range req.PlayerIDs {
		if seen[player] {
			continue
		}
		seen[player] = true
		granted, err := s.evaluatePlayer(ctx, player, req.GameID, entries, result)
		out.Granted = append(out.Granted, granted...)
		if err != nil {
			s.logger.ErrorContext(ctx, "achievement evaluation failed", "player_id", player, "game_id", req.GameID, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return out, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "achievement evaluation failed")
	}
	s.logger.InfoContext(ctx, "achievements evaluated", "lobby_id", req.LobbyID, "game_id", req.GameID, "players", len(seen), "granted", len(out.Granted))
	return out, nil
}

func (s *Service) evaluatePlayer(ctx context.Context, player domain.PlayerID, game domain.GameID, entries []*models.Achievement, result models.GameResult) ([]*models.UserAchievement, error) {
	s.metrics.IncrementEvaluations()
	stats, err := s.stats.Load(ctx, player, game)
	if err != nil {
		return nil, err
	}
	recorded := stats.Record(result)
	if !recorded {
		s.logger.DebugContext(ctx, "game already recorded for player", "player_id", player, "game_key", result.Key)
	}

	var granted []*models.UserAchievement
	for _, a := range entries {
		if a.ThirdParty {
			continue
		}
		met, err := s.satisfies(ctx, a, stats)
		if err != nil {
			return granted, err
		}
		if !met {
			continue
		}
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			ua, ok, err := s.grant(ctx, player, a)
			if ok {
				granted = append(granted, ua)
			}
			return err
		})
		if err != nil {
			return granted, err
		}
	}

	if recorded {
		if err := s.stats.Save(ctx, stats); err != nil {
			return granted, err
		}
	}
	return granted, nil
}

func (s *Service) satisfies(ctx context.Context, a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	held, err := s.grants.ExistsByPlayerAndAchievement(ctx, stats.PlayerID, a.ID)
	if err != nil || held {
		return false, err
	}
	e, ok := s.evaluators.For(a)
	if !ok {
		s.logger.WarnContext(ctx, "no evaluator for achievement", "achievement_id", a.ID, "criteria", a.Criteria)
		return false, nil
	}
	met, err := e.Evaluate(a, stats)
	if errors.Is(err, evaluator.ErrUnreadableRule) {
		s.logger.WarnContext(ctx, "achievement rule not understood", "achievement_id", a.ID, "evaluator", e.Name(), "name", a.Name)
		return false, nil
	}
	return met, err
}
