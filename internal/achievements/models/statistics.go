package models

import (
	"time"

	"arcadia/pkg/domain"
)

// recentGamesKept bounds the list of game keys remembered for duplicate
// detection.
const recentGamesKept = 32

// PlayerStatistics aggregates a player's results in one game. It is stored
// as a JSON document.
type PlayerStatistics struct {
	PlayerID         domain.PlayerID   `json:"playerId"`
	GameID           domain.GameID     `json:"gameId"`
	TotalWins        int               `json:"totalWins"`
	TotalLosses      int               `json:"totalLosses"`
	TotalDraws       int               `json:"totalDraws"`
	TotalGames       int               `json:"totalGames"`
	CurrentWinStreak int               `json:"currentWinStreak"`
	LongestWinStreak int               `json:"longestWinStreak"`
	TotalPlayTime    time.Duration     `json:"totalPlayTime"`
	FastestWin       time.Duration     `json:"fastestWin,omitempty"`
	UniqueOpponents  []domain.PlayerID `json:"uniqueOpponents"`
	RecentGames      []string          `json:"recentGames,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func NewPlayerStatistics(player domain.PlayerID, game domain.GameID) *PlayerStatistics {
	return &PlayerStatistics{PlayerID: player, GameID: game, UniqueOpponents: []domain.PlayerID{}}
}

// GameResult is one finished game from a single player's point of view.
// A nil Winner is a draw.
type GameResult struct {
	Key      string
	Winner   *domain.PlayerID
	Players  []domain.PlayerID
	Duration time.Duration
	EndedAt  time.Time
}

// Record applies r and reports whether it changed anything. A result whose
// Key was already recorded is ignored.
func (s *PlayerStatistics) Record(r GameResult) bool {
	if r.Key != "" && s.hasRecorded(r.Key) {
		return false
	}
	switch {
	case r.Winner == nil:
		s.recordDraw()
	case *r.Winner == s.PlayerID:
		s.recordWin()
		if r.Duration > 0 && (s.FastestWin == 0 || r.Duration < s.FastestWin) {
			s.FastestWin = r.Duration
		}
	default:
		s.recordLoss()
	}
	for _, opponent := range r.Players {
		if opponent != s.PlayerID && !domain.ContainsPlayer(s.UniqueOpponents, opponent) {
			s.UniqueOpponents = append(s.UniqueOpponents, opponent)
		}
	}
	if r.Duration > 0 {
		s.TotalPlayTime += r.Duration
	}
	if r.Key != "" {
		s.RecentGames = append(s.RecentGames, r.Key)
		if len(s.RecentGames) > recentGamesKept {
			s.RecentGames = s.RecentGames[len(s.RecentGames)-recentGamesKept:]
		}
	}
	s.UpdatedAt = r.EndedAt
	return true
}

func (s *PlayerStatistics) hasRecorded(key string) bool {
	for _, k := range s.RecentGames {
		if k == key {
			return true
		}
	}
	return false
}

func (s *PlayerStatistics) recordWin() {
	s.TotalWins++
	s.TotalGames++
	s.CurrentWinStreak++
	if s.CurrentWinStreak > s.LongestWinStreak {
		s.LongestWinStreak = s.CurrentWinStreak
	}
}

func (s *PlayerStatistics) recordLoss() {
	s.TotalLosses++
	s.TotalGames++
	s.CurrentWinStreak = 0
}

func (s *PlayerStatistics) recordDraw() {
	s.TotalDraws++
	s.TotalGames++
	s.CurrentWinStreak = 0
}

func (s *PlayerStatistics) Clone() *PlayerStatistics {
	c := *s
	c.UniqueOpponents = append([]domain.PlayerID{}, s.UniqueOpponents...)
	c.RecentGames = append([]string(nil), s.RecentGames...)
	return &c
}
