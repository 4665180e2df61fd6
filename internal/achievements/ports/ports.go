package ports

import (
	"context"
	"time"

	"arcadia/internal/achievements/models"
	"arcadia/pkg/domain"
)

// AchievementStore holds the catalog. Save returns sentinel.ErrConflict when
// a third-party code is already registered for the game.
type AchievementStore interface {
	FindByID(ctx context.Context, id domain.AchievementID) (*models.Achievement, error)
	FindByGame(ctx context.Context, game domain.GameID) ([]*models.Achievement, error)
	FindByGameAndCode(ctx context.Context, game domain.GameID, code string) (*models.Achievement, error)
	FindAll(ctx context.Context) ([]*models.Achievement, error)
	Save(ctx context.Context, a *models.Achievement) error
}

// UserAchievementStore holds grants. Save returns sentinel.ErrConflict when
// the player already holds the achievement.
type UserAchievementStore interface {
	ExistsByPlayerAndAchievement(ctx context.Context, player domain.PlayerID, achievement domain.AchievementID) (bool, error)
	ListByPlayer(ctx context.Context, player domain.PlayerID) ([]*models.UserAchievement, error)
	Save(ctx context.Context, ua *models.UserAchievement) error
}

// StatisticsStore loads per-player, per-game statistics. Load returns fresh
// zero statistics when none were saved yet.
type StatisticsStore interface {
	Load(ctx context.Context, player domain.PlayerID, game domain.GameID) (*models.PlayerStatistics, error)
	Save(ctx context.Context, stats *models.PlayerStatistics) error
}

// GameSession is what the achievements module needs to know about the game
// a lobby played.
type GameSession struct {
	GameID    domain.GameID
	StartedAt *time.Time
}

// GameResolver finds the game a lobby played. It returns a coded not-found
// error when the lobby is unknown or never started a game.
type GameResolver interface {
	ResolveGame(ctx context.Context, lobby domain.LobbyID) (GameSession, error)
}
