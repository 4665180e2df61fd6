package messaging

import (
	"context"
	"log/slog"
	"strings"

	"arcadia/internal/acl/ports"
	"arcadia/internal/platform/kafka"
	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

// Inbound holds the handlers for the external game service topics.
type Inbound struct {
	games   ports.GameContextPort
	players ports.PlayerContextPort
	auth    Authenticator
	dedupe  Deduplicator
	logger  *slog.Logger
}

type Option func(*Inbound)

func WithLogger(logger *slog.Logger) Option {
	return func(in *Inbound) {
		if logger != nil {
			in.logger = logger
		}
	}
}

func WithAuthenticator(auth Authenticator) Option {
	return func(in *Inbound) {
		if auth != nil {
			in.auth = auth
		}
	}
}

// WithDeduplicator skips records whose key was already handled. Without one
// every delivery is processed.
func WithDeduplicator(d Deduplicator) Option {
	return func(in *Inbound) {
		in.dedupe = d
	}
}

func NewInbound(games ports.GameContextPort, players ports.PlayerContextPort, opts ...Option) *Inbound {
	in := &Inbound{
		games:   games,
		players: players,
		auth:    AllowAll,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Routes binds the handlers to their topics.
func (in *Inbound) Routes(router *kafka.Router, achievementsTopic, gameEndedTopic string) {
	router.Route(achievementsTopic, in.AchievementAcquired())
	router.Route(gameEndedTopic, in.GameEnded())
}

func (in *Inbound) AchievementAcquired() kafka.Handler {
	return in.guard(func(ctx context.Context, value []byte) error {
		var msg AchievementAcquiredMessage
		if err := decode(value, &msg); err != nil {
			return err
		}
		unlock, err := msg.Translate()
		if err != nil {
			return err
		}
		return in.games.HandleThirdPartyAchievementUnlocked(ctx, unlock.GameID, unlock.PlayerID, unlock.Code, unlock.Name, unlock.Description)
	})
}

func (in *Inbound) GameEnded() kafka.Handler {
	return in.guard(func(ctx context.Context, value []byte) error {
		var msg GameEndedMessage
		if err := decode(value, &msg); err != nil {
			return err
		}
		ended, err := msg.Translate()
		if err != nil {
			return err
		}
		participants := ended.PlayerIDs
		if len(participants) == 0 {
			if participants, err = in.resolveUsernames(ctx, ended.Usernames); err != nil {
				return err
			}
		}
		winner := ended.WinnerID
		if ended.IsDraw() {
			winner = nil
		}
		return in.games.HandleGameEnded(ctx, ended.LobbyID, winner, participants)
	})
}

// resolveUsernames maps each username to the player with exactly that name.
// Names with no such player are dropped.
func (in *Inbound) resolveUsernames(ctx context.Context, usernames []string) ([]domain.PlayerID, error) {
	out := make([]domain.PlayerID, 0, len(usernames))
	for _, name := range usernames {
		candidates, err := in.players.FindPlayerIDsByUsername(ctx, name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve username")
		}
		infos, err := in.players.GetPlayerInfos(ctx, candidates)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve username")
		}
		found := false
		for _, info := range infos {
			if strings.EqualFold(info.Username, name) {
				out = append(out, info.PlayerID)
				found = true
				break
			}
		}
		if !found {
			in.logger.WarnContext(ctx, "game ended message names an unknown player", "username", name)
		}
	}
	return out, nil
}

// guard authenticates, deduplicates and classifies the outcome of one
// record. Malformed records are dropped and unauthenticated ones fail
// permanently. Other failures release the dedupe claim so the consumer's
// next attempt is handled again.
func (in *Inbound) guard(handle func(ctx context.Context, value []byte) error) kafka.Handler {
	return kafka.HandlerFunc(func(ctx context.Context, msg *kafka.Message) error {
		log := in.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

		if err := in.auth.Authenticate(ctx, msg); err != nil {
			log.WarnContext(ctx, "rejected unauthenticated message", "error", err)
			return kafka.Permanent(dErrors.Wrap(err, dErrors.CodeUnauthorized, "message not authenticated"))
		}

		key := MessageKey(msg)
		claimed := false
		if in.dedupe != nil {
			first, err := in.dedupe.FirstSeen(ctx, key)
			switch {
			case err != nil:
				log.WarnContext(ctx, "dedupe unavailable, processing anyway", "error", err)
			case !first:
				log.DebugContext(ctx, "skipping redelivered message", "key", key)
				return nil
			default:
				claimed = true
			}
		}

		err := handle(ctx, msg.Value)
		switch {
		case err == nil:
			return nil
		case dErrors.HasCode(err, dErrors.CodeInvalidArgument):
			log.WarnContext(ctx, "dropping malformed message", "error", err)
			return nil
		}
		if claimed {
			if ferr := in.dedupe.Forget(ctx, key); ferr != nil {
				log.WarnContext(ctx, "failed to release dedupe key", "key", key, "error", ferr)
			}
		}
		return err
	})
}
