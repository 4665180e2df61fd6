// Package adapters implements the translation ports over the modules that
// own the data. It is the only place outside cmd that may reach into
// another module's service package.
package adapters

import (
	"context"
	"log/slog"
	"strings"

	"arcadia/internal/acl/ports"
	"arcadia/internal/player/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// PlayerDirectory is the slice of the player service the adapter reads.
type PlayerDirectory interface {
	Get(ctx context.Context, id domain.PlayerID) (*models.Player, error)
	GetMany(ctx context.Context, ids []domain.PlayerID) ([]*models.Player, error)
	SearchByUsername(ctx context.Context, q string) ([]*models.Player, error)
}

// PlayerContextAdapter answers PlayerContextPort questions from the player
// module and strips private fields on the way out.
type PlayerContextAdapter struct {
	players PlayerDirectory
	logger  *slog.Logger
}

var _ ports.PlayerContextPort = (*PlayerContextAdapter)(nil)

func NewPlayerContextAdapter(players PlayerDirectory, logger *slog.Logger) *PlayerContextAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerContextAdapter{players: players, logger: logger}
}

// FindPlayerIDsByUsername returns every player whose username contains
// username, exact matches first.
func (a *PlayerContextAdapter) FindPlayerIDsByUsername(ctx context.Context, username string) ([]domain.PlayerID, error) {
	a.logger.DebugContext(ctx, "acl: searching players by username", "query", username)

	found, err := a.players.SearchByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	exact := make([]domain.PlayerID, 0, len(found))
	partial := make([]domain.PlayerID, 0, len(found))
	for _, p := range found {
		if strings.EqualFold(p.Username, strings.TrimSpace(username)) {
			exact = append(exact, p.ID)
		} else {
			partial = append(partial, p.ID)
		}
	}
	return append(exact, partial...), nil
}

func (a *PlayerContextAdapter) PlayerExists(ctx context.Context, player domain.PlayerID) (bool, error) {
	_, found, err := a.GetPlayerInfo(ctx, player)
	return found, err
}

func (a *PlayerContextAdapter) GetPlayerInfo(ctx context.Context, player domain.PlayerID) (ports.PlayerInfo, bool, error) {
	p, err := a.players.Get(ctx, player)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return ports.PlayerInfo{}, false, nil
	}
	if err != nil {
		return ports.PlayerInfo{}, false, err
	}
	return toPlayerInfo(p), true, nil
}

func (a *PlayerContextAdapter) GetPlayerInfos(ctx context.Context, players []domain.PlayerID) ([]ports.PlayerInfo, error) {
	a.logger.DebugContext(ctx, "acl: loading player infos", "count", len(players))
	if len(players) == 0 {
		return []ports.PlayerInfo{}, nil
	}

	found, err := a.players.GetMany(ctx, players)
	if err != nil {
		return nil, err
	}
	out := make([]ports.PlayerInfo, 0, len(found))
	for _, p := range found {
		out = append(out, toPlayerInfo(p))
	}
	return out, nil
}

// toPlayerInfo leaves out email and address.
func toPlayerInfo(p *models.Player) ports.PlayerInfo {
	prefs := make([]string, len(p.GamePreferences))
	copy(prefs, p.GamePreferences)
	return ports.PlayerInfo{
		PlayerID:        p.ID,
		Username:        p.Username,
		Bio:             p.Bio,
		GamePreferences: prefs,
		Rank:            p.Rank,
		Exp:             p.Exp,
	}
}
