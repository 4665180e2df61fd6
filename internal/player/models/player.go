package models

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
	textutil "arcadia/pkg/platform/strings"
)

const (
	MaxUsernameLength = 32
	MaxBioLength      = 500
	MaxPreferences    = 20
)

// Player is the full profile owned by the player module. Email and Address
// never leave it; other modules see PlayerInfo through the ACL.
type Player struct {
	ID              domain.PlayerID
	Username        string
	Bio             string
	GamePreferences []string
	Email           string
	Address         string
	Rank            int
	Exp             int64
	CreatedAt       time.Time
}

func NewPlayer(id domain.PlayerID, username, email string, now time.Time) (*Player, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "player id is required")
	}
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if email = strings.TrimSpace(email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidArgument, "invalid email address")
		}
	}
	return &Player{
		ID:              id,
		Username:        username,
		Email:           email,
		GamePreferences: []string{},
		CreatedAt:       now,
	}, nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "username is too long")
	}
	if strings.ContainsAny(username, " \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidArgument, "username cannot contain whitespace")
	}
	return username, nil
}

// UpdateProfile replaces the bio and game preferences. Preferences are
// trimmed and de-duplicated case-insensitively, keeping the first spelling.
func (p *Player) UpdateProfile(bio string, preferences []string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return dErrors.New(dErrors.CodeInvalidArgument, "bio is too long")
	}
	cleaned := textutil.DedupeFold(preferences)
	if cleaned == nil {
		cleaned = []string{}
	}
	if len(cleaned) > MaxPreferences {
		return dErrors.New(dErrors.CodeInvalidArgument, "too many game preferences")
	}
	p.Bio = bio
	p.GamePreferences = cleaned
	return nil
}

func (p *Player) SetAddress(address string) {
	p.Address = strings.TrimSpace(address)
}

// MatchesUsername reports whether q occurs in the username, ignoring case.
func (p *Player) MatchesUsername(q string) bool {
	return strings.Contains(strings.ToLower(p.Username), strings.ToLower(strings.TrimSpace(q)))
}

func (p *Player) Clone() *Player {
	c := *p
	c.GamePreferences = append([]string(nil), p.GamePreferences...)
	return &c
}
