// Package events is the published contract of the achievements module.
package events

import (
	"time"

	"arcadia/pkg/domain"
)

const TypeAchievementAcquired = "achievements.acquired"

// AchievementAcquiredEvent is published once per grant, never for a
// duplicate.
type AchievementAcquiredEvent struct {
	PlayerID      domain.PlayerID      `json:"playerId"`
	AchievementID domain.AchievementID `json:"achievementId"`
	GameID        domain.GameID        `json:"gameId"`
	Name          string               `json:"name"`
	UnlockedAt    time.Time            `json:"unlockedAt"`
}

func (AchievementAcquiredEvent) EventType() string     { return TypeAchievementAcquired }
func (e AchievementAcquiredEvent) AggregateID() string { return e.PlayerID.String() }
