// Package evaluator decides whether a player's statistics satisfy a catalog
// entry. Thresholds are read from the entry's rule text, so "Win 10 games"
// needs no extra configuration.
package evaluator

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"arcadia/internal/achievements/models"
)

// ErrUnreadableRule is returned when an evaluator accepts an entry but
// cannot find a threshold in its rule text.
var ErrUnreadableRule = errors.New("achievement rule text has no recognizable threshold")

type Evaluator interface {
	Name() string
	CanEvaluate(a *models.Achievement) bool
	Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error)
}

// Set picks the first evaluator that accepts an entry.
type Set []Evaluator

// Default returns the built-in evaluators. Social comes first because it
// matches on category and a social entry may use any criteria.
func Default() Set {
	return Set{Social{}, Counter{}, Streak{}, OneTime{}, Time{}}
}

func (s Set) For(a *models.Achievement) (Evaluator, bool) {
	for _, e := range s {
		if e.CanEvaluate(a) {
			return e, true
		}
	}
	return nil, false
}

var (
	winsPattern     = regexp.MustCompile(`win\s+(\d+)\s+games?`)
	lossesPattern   = regexp.MustCompile(`lose\s+(\d+)\s+games?`)
	gamesPattern    = regexp.MustCompile(`play\s+(\d+)\s+games?`)
	streakPattern   = regexp.MustCompile(`(\d+)\s+games?\s+in\s+a\s+row`)
	opponentPattern = regexp.MustCompile(`(\d+)\s+unique\s+(?:players?|opponents?)`)
	underPattern    = regexp.MustCompile(`under\s+(\d+)\s+minutes?`)
	playTimePattern = regexp.MustCompile(`(\d+)\s+hours?\s+of\s+play`)
)

func threshold(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Counter handles "Win N games", "Lose N games" and "Play N games".
type Counter struct{}

func (Counter) Name() string { return "counter" }

func (Counter) CanEvaluate(a *models.Achievement) bool {
	return a.Criteria == models.CriteriaCounterReachesThreshold
}

func (Counter) Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	text := a.RuleText()
	if n, ok := threshold(winsPattern, text); ok {
		return stats.TotalWins >= n, nil
	}
	if n, ok := threshold(lossesPattern, text); ok {
		return stats.TotalLosses >= n, nil
	}
	if n, ok := threshold(gamesPattern, text); ok {
		return stats.TotalGames >= n, nil
	}
	return false, ErrUnreadableRule
}

// Streak handles "N games in a row" against the current win streak.
type Streak struct{}

func (Streak) Name() string { return "streak" }

func (Streak) CanEvaluate(a *models.Achievement) bool {
	return a.Criteria == models.CriteriaStreak
}

func (Streak) Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	n, ok := threshold(streakPattern, a.RuleText())
	if !ok {
		return false, ErrUnreadableRule
	}
	return stats.CurrentWinStreak >= n, nil
}

// OneTime recognizes first-victory entries. Other one-time events are
// reported by the external service as third-party achievements.
type OneTime struct{}

func (OneTime) Name() string { return "one-time" }

func (OneTime) CanEvaluate(a *models.Achievement) bool {
	return a.Criteria == models.CriteriaOneTimeEvent
}

func (OneTime) Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	text := a.RuleText()
	if strings.Contains(text, "first") && (strings.Contains(text, "victory") || strings.Contains(text, "win")) {
		return stats.TotalWins >= 1, nil
	}
	return false, nil
}

// Social handles "N unique players".
type Social struct{}

func (Social) Name() string { return "social" }

func (Social) CanEvaluate(a *models.Achievement) bool {
	return a.Category == models.CategorySocial
}

func (Social) Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	n, ok := threshold(opponentPattern, a.RuleText())
	if !ok {
		return false, ErrUnreadableRule
	}
	return len(stats.UniqueOpponents) >= n, nil
}

// Time handles "win under N minutes" and "N hours of play".
type Time struct{}

func (Time) Name() string { return "time" }

func (Time) CanEvaluate(a *models.Achievement) bool {
	return a.Criteria == models.CriteriaTimeReached
}

func (Time) Evaluate(a *models.Achievement, stats *models.PlayerStatistics) (bool, error) {
	text := a.RuleText()
	if n, ok := threshold(underPattern, text); ok && strings.Contains(text, "win") {
		return stats.FastestWin > 0 && stats.FastestWin <= time.Duration(n)*time.Minute, nil
	}
	if n, ok := threshold(playTimePattern, text); ok {
		return stats.TotalPlayTime >= time.Duration(n)*time.Hour, nil
	}
	return false, ErrUnreadableRule
}
