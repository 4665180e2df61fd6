package models

import (
	"strings"
	"time"

	"arcadia/pkg/domain"
	dErrors "arcadia/pkg/domain-errors"
)

type Category string

const (
	CategoryProgression Category = "PROGRESSION"
	CategoryTime        Category = "TIME"
	CategoryDifficulty  Category = "DIFFICULTY"
	CategorySocial      Category = "SOCIAL"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryProgression, CategoryTime, CategoryDifficulty, CategorySocial:
		return true
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Criteria selects how an achievement's rule text is read.
type Criteria string

const (
	CriteriaCounterReachesThreshold Criteria = "COUNTER_REACHES_THRESHOLD"
	CriteriaStreak                  Criteria = "STREAK"
	CriteriaOneTimeEvent            Criteria = "ONE_TIME_EVENT"
	CriteriaTimeReached             Criteria = "TIME_REACHED"
)

func (c Criteria) IsValid() bool {
	switch c {
	case CriteriaCounterReachesThreshold, CriteriaStreak, CriteriaOneTimeEvent, CriteriaTimeReached:
		return true
	}
	return false
}

// Achievement is a catalog entry for one game. Third-party achievements are
// reported by the external game service by Code and are never evaluated
// locally.
type Achievement struct {
	ID               domain.AchievementID
	GameID           domain.GameID
	Name             string
	Description      string
	TriggerCondition string
	Category         Category
	Rarity           Rarity
	Criteria         Criteria
	ThirdParty       bool
	Code             string
	CreatedAt        time.Time
}

// Definition describes a locally evaluated catalog entry.
type Definition struct {
	GameID           domain.GameID
	Name             string
	Description      string
	TriggerCondition string
	Category         Category
	Rarity           Rarity
	Criteria         Criteria
}

func NewAchievement(id domain.AchievementID, def Definition, now time.Time) (*Achievement, error) {
	if def.GameID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "game id is required")
	}
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "achievement name is required")
	}
	if !def.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "invalid achievement category: "+string(def.Category))
	}
	if !def.Rarity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "invalid achievement rarity: "+string(def.Rarity))
	}
	if !def.Criteria.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "invalid achievement criteria: "+string(def.Criteria))
	}
	return &Achievement{
		ID:               id,
		GameID:           def.GameID,
		Name:             name,
		Description:      strings.TrimSpace(def.Description),
		TriggerCondition: strings.TrimSpace(def.TriggerCondition),
		Category:         def.Category,
		Rarity:           def.Rarity,
		Criteria:         def.Criteria,
		CreatedAt:        now,
	}, nil
}

// NewThirdPartyAchievement registers an externally reported achievement.
// The name falls back to the code when the external service sends none.
func NewThirdPartyAchievement(id domain.AchievementID, game domain.GameID, code, name, description string, now time.Time) (*Achievement, error) {
	if game.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "game id is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "achievement code is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	return &Achievement{
		ID:          id,
		GameID:      game,
		Name:        name,
		Description: strings.TrimSpace(description),
		Category:    CategoryProgression,
		Rarity:      RarityCommon,
		Criteria:    CriteriaOneTimeEvent,
		ThirdParty:  true,
		Code:        code,
		CreatedAt:   now,
	}, nil
}

// RuleText is what evaluators parse thresholds from.
func (a *Achievement) RuleText() string {
	return strings.ToLower(strings.Join([]string{a.Name, a.Description, a.TriggerCondition}, " "))
}

// UserAchievement records that a player holds an achievement. There is at
// most one per (PlayerID, AchievementID).
type UserAchievement struct {
	ID            domain.UserAchievementID
	PlayerID      domain.PlayerID
	AchievementID domain.AchievementID
	UnlockedAt    time.Time
}

// PlayerAchievement joins a grant with its catalog entry.
type PlayerAchievement struct {
	Achievement *Achievement
	UnlockedAt  time.Time
}
