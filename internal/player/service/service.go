// Package service owns player profiles. Other modules never call it
// directly; the ACL projects profiles into PlayerInfo.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arcadia/internal/player/models"
	"arcadia/internal/player/ports"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/sentinel"
	"arcadia/pkg/platform/tx"
)

const defaultSearchLimit = 50

type Service struct {
	players ports.PlayerStore
	tx      tx.Runner
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(players ports.PlayerStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		players: players,
		tx:      runner,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCommand describes a new player. ID is minted when nil so that an
// identity provider can supply its own subject id.
type RegisterCommand struct {
	ID              domain.PlayerID
	Username        string
	Email           string
	Address         string
	Bio             string
	GamePreferences []string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*models.Player, error) {
	id := cmd.ID
	if id.IsNil() {
		id = domain.NewPlayerID()
	}
	p, err := models.NewPlayer(id, cmd.Username, cmd.Email, s.now())
	if err != nil {
		return nil, err
	}
	if err := p.UpdateProfile(cmd.Bio, cmd.GamePreferences); err != nil {
		return nil, err
	}
	p.SetAddress(cmd.Address)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.players.FindByID(ctx, id); err == nil {
			return dErrors.New(dErrors.CodeConflict, "player already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load player")
		}
		return s.save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "player registered", "player_id", p.ID, "username", p.Username)
	return p, nil
}

// UpdateCommand replaces the public profile fields. A nil Bio keeps the
// current one; a nil GamePreferences keeps the current list.
type UpdateCommand struct {
	Bio             *string
	GamePreferences []string
	Address         *string
}

func (s *Service) Update(ctx context.Context, id domain.PlayerID, cmd UpdateCommand) (*models.Player, error) {
	var out *models.Player
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.players.FindByID(ctx, id)
		if err != nil {
			return translate(err, "failed to load player")
		}
		bio, prefs := p.Bio, p.GamePreferences
		if cmd.Bio != nil {
			bio = *cmd.Bio
		}
		if cmd.GamePreferences != nil {
			prefs = cmd.GamePreferences
		}
		if err := p.UpdateProfile(bio, prefs); err != nil {
			return err
		}
		if cmd.Address != nil {
			p.SetAddress(*cmd.Address)
		}
		if err := s.save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "player profile updated", "player_id", id)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.PlayerID) (*models.Player, error) {
	p, err := s.players.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load player")
	}
	return p, nil
}

// GetMany returns the players that exist among ids, in request order.
func (s *Service) GetMany(ctx context.Context, ids []domain.PlayerID) ([]*models.Player, error) {
	players, err := s.players.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load players")
	}
	return players, nil
}

// SearchByUsername matches q anywhere in the username, ignoring case. An
// empty query matches nothing.
func (s *Service) SearchByUsername(ctx context.Context, q string) ([]*models.Player, error) {
	if strings.TrimSpace(q) == "" {
		return []*models.Player{}, nil
	}
	players, err := s.players.SearchByUsername(ctx, q, defaultSearchLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search players")
	}
	return players, nil
}

func (s *Service) save(ctx context.Context, p *models.Player) error {
	if err := s.players.Save(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save player")
	}
	return nil
}

func translate(err error, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "player not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
