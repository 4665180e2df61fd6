package adapters

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"arcadia/internal/acl/ports"
	lobbyevents "arcadia/internal/lobby/events"
	lobbymodels "arcadia/internal/lobby/models"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	"arcadia/pkg/platform/events"
)

// ExternalSession asks the external game service to host one match.
// Players are in seating order; the first one moves first.
type ExternalSession struct {
	InstanceID string
	LobbyID    domain.LobbyID
	GameID     domain.GameID
	GameType   string
	Players    []ports.PlayerInfo
}

// ExternalGameService hosts sessions of games the platform does not run
// itself.
type ExternalGameService interface {
	RequestSession(ctx context.Context, session ExternalSession) error
}

// ExternalInstanceRegistry is the slice of the lobby service that records
// which external session belongs to a lobby.
type ExternalInstanceRegistry interface {
	ExternalGameInstanceByType(ctx context.Context, lobbyID domain.LobbyID, gameType string) (*lobbymodels.ExternalGameInstance, error)
	StoreExternalGameInstance(ctx context.Context, lobbyID domain.LobbyID, game domain.GameID, gameType, instanceID string) (*lobbymodels.ExternalGameInstance, error)
}

// ExternalGameLobbyHandler opens an external session when a lobby starts a
// game that is hosted elsewhere. Games not listed in games are ignored.
type ExternalGameLobbyHandler struct {
	games     map[domain.GameID]string
	players   ports.PlayerContextPort
	instances ExternalInstanceRegistry
	external  ExternalGameService
	newID     func() string
	logger    *slog.Logger
}

func NewExternalGameLobbyHandler(games map[domain.GameID]string, players ports.PlayerContextPort, instances ExternalInstanceRegistry, external ExternalGameService, logger *slog.Logger) *ExternalGameLobbyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalGameLobbyHandler{
		games:     games,
		players:   players,
		instances: instances,
		external:  external,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// ParseExternalGames converts the configured game id to game type mapping.
func ParseExternalGames(raw map[string]string) (map[domain.GameID]string, error) {
	out := make(map[domain.GameID]string, len(raw))
	for id, gameType := range raw {
		game, err := domain.ParseGameID(id)
		if err != nil {
			return nil, err
		}
		out[game] = gameType
	}
	return out, nil
}

// Register subscribes the handler to lobby starts made by this process only.
// Peers replaying the same start through the domain event topic would
// otherwise request the session again.
func (h *ExternalGameLobbyHandler) Register(bus *events.Bus, opts ...events.SubscribeOption) {
	events.On(bus, "acl.external-game-session", h.Handle, append([]events.SubscribeOption{events.LocalOnly()}, opts...)...)
}

func (h *ExternalGameLobbyHandler) Handle(ctx context.Context, evt lobbyevents.LobbyStartedEvent) error {
	gameType, ok := h.games[evt.GameID]
	if !ok {
		h.logger.DebugContext(ctx, "lobby started a platform-hosted game", "lobby_id", evt.LobbyID, "game_id", evt.GameID)
		return nil
	}

	err := h.open(ctx, evt, gameType)
	switch {
	case err == nil:
		return nil
	case dErrors.HasCode(err, dErrors.CodeInternal), dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		h.logger.ErrorContext(ctx, "failed to open external game session",
			"lobby_id", evt.LobbyID,
			"game_id", evt.GameID,
			"external_game_type", gameType,
			"error", err,
		)
		return nil
	}
}

func (h *ExternalGameLobbyHandler) open(ctx context.Context, evt lobbyevents.LobbyStartedEvent, gameType string) error {
	players, err := h.players.GetPlayerInfos(ctx, evt.PlayerIDs)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load players")
	}
	if len(players) != len(evt.PlayerIDs) {
		return dErrors.New(dErrors.CodeNotFound, "lobby roster has unknown players")
	}

	instanceID, err := h.instanceFor(ctx, evt, gameType)
	if err != nil {
		return err
	}
	if err := h.external.RequestSession(ctx, ExternalSession{
		InstanceID: instanceID,
		LobbyID:    evt.LobbyID,
		GameID:     evt.GameID,
		GameType:   gameType,
		Players:    players,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to request external session")
	}

	h.logger.InfoContext(ctx, "external game session requested",
		"lobby_id", evt.LobbyID,
		"external_game_type", gameType,
		"external_instance_id", instanceID,
		"players", len(players),
	)
	return nil
}

// instanceFor reuses a mapping stored by an earlier attempt so that a
// retried delivery asks for the same session again.
func (h *ExternalGameLobbyHandler) instanceFor(ctx context.Context, evt lobbyevents.LobbyStartedEvent, gameType string) (string, error) {
	existing, err := h.instances.ExternalGameInstanceByType(ctx, evt.LobbyID, gameType)
	if err == nil {
		return existing.ExternalGameInstanceID, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return "", err
	}
	stored, err := h.instances.StoreExternalGameInstance(ctx, evt.LobbyID, evt.GameID, gameType, h.newID())
	if err != nil {
		return "", err
	}
	return stored.ExternalGameInstanceID, nil
}
