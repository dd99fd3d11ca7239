package service

import "github.com/noah-isme/unishare-api/internal/models"

// Point values per content event.
const (
	PointsNoteUpload  = 20
	PointsComment     = 2
	PointsLikeReceive = 1
)

// Level is one tier of the fixed level table.
type Level struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	MinScore int    `json:"min_score"`
}

// Levels is ordered from level 1 upwards.
var Levels = []Level{
	{Number: 1, Name: "Newcomer", MinScore: 0},
	{Number: 2, Name: "Learner", MinScore: 101},
	{Number: 3, Name: "Contributor", MinScore: 301},
	{Number: 4, Name: "Scholar", MinScore: 601},
	{Number: 5, Name: "Mentor", MinScore: 1001},
	{Number: 6, Name: "Legend", MinScore: 1501},
}

// LevelForScore returns the highest level whose minimum the score reaches.
func LevelForScore(score int) Level {
	for i := len(Levels) - 1; i >= 0; i-- {
		if score >= Levels[i].MinScore {
			return Levels[i]
		}
	}
	return Levels[0]
}

// NextLevel returns the level after current, or false at the top of the table.
func NextLevel(current int) (Level, bool) {
	for _, level := range Levels {
		if level.Number == current+1 {
			return level, true
		}
	}
	return Level{}, false
}

// badgeRequirement is one stat threshold inside a badge predicate.
type badgeRequirement struct {
	stat      func(models.UserStats) int
	threshold int
}

// BadgeDefinition describes an achievement and the stat thresholds that unlock it.
type BadgeDefinition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	require     []badgeRequirement
}

func notesStat(s models.UserStats) int    { return s.Notes }
func commentsStat(s models.UserStats) int { return s.Comments }
func likesStat(s models.UserStats) int    { return s.LikesReceived }

// Badges is the fixed badge catalogue.
var Badges = []BadgeDefinition{
	{ID: "first_note", Name: "First Note", Description: "Upload your first note", Icon: "📝",
		require: []badgeRequirement{{notesStat, 1}}},
	{ID: "contributor", Name: "Contributor", Description: "Upload 10 notes", Icon: "📚",
		require: []badgeRequirement{{notesStat, 10}}},
	{ID: "expert", Name: "Expert", Description: "Upload 30 notes", Icon: "🎓",
		require: []badgeRequirement{{notesStat, 30}}},
	{ID: "social", Name: "Social", Description: "Write 50 comments", Icon: "💬",
		require: []badgeRequirement{{commentsStat, 50}}},
	{ID: "popular", Name: "Popular", Description: "Receive 100 likes", Icon: "⭐",
		require: []badgeRequirement{{likesStat, 100}}},
	{ID: "legend", Name: "Legend", Description: "Upload 100 notes and receive 200 likes", Icon: "🏆",
		require: []badgeRequirement{{notesStat, 100}, {likesStat, 200}}},
}

// BadgeByID looks a badge up in the catalogue.
func BadgeByID(id string) (BadgeDefinition, bool) {
	for _, badge := range Badges {
		if badge.ID == id {
			return badge, true
		}
	}
	return BadgeDefinition{}, false
}

// Earned reports whether every requirement of the badge is met by stats.
func (b BadgeDefinition) Earned(stats models.UserStats) bool {
	for _, req := range b.require {
		if req.stat(stats) < req.threshold {
			return false
		}
	}
	return true
}

// Progress is the completion percentage (0-100) of the least complete requirement.
func (b BadgeDefinition) Progress(stats models.UserStats) int {
	progress := 100
	for _, req := range b.require {
		if req.threshold <= 0 {
			continue
		}
		current := req.stat(stats)
		if current < 0 {
			current = 0
		}
		pct := current * 100 / req.threshold
		if pct > 100 {
			pct = 100
		}
		if pct < progress {
			progress = pct
		}
	}
	return progress
}
