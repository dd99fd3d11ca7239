package dto

import "time"

// LevelResponse describes one level of the fixed table.
type LevelResponse struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	MinScore int    `json:"min_score"`
}

// UserScoreResponse is a snapshot of a user's gamification state.
type UserScoreResponse struct {
	UserID        uint           `json:"user_id"`
	Name          string         `json:"name"`
	Score         int            `json:"score"`
	MonthlyScore  int            `json:"monthly_score"`
	Level         LevelResponse  `json:"level"`
	NextLevel     *LevelResponse `json:"next_level,omitempty"`
	PointsToNext  int            `json:"points_to_next"`
	Notes         int            `json:"notes"`
	Comments      int            `json:"comments"`
	LikesReceived int            `json:"likes_received"`
}

// BadgeStatusResponse is one catalogue badge with the user's progress towards it.
type BadgeStatusResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	AwardedAt   *time.Time `json:"awarded_at,omitempty"`
	Progress    int        `json:"progress"`
}

// LeaderboardQuery selects the leaderboard period and size.
type LeaderboardQuery struct {
	Period string `query:"period" validate:"omitempty,oneof=all monthly"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Level  int    `json:"level"`
}

// LeaderboardResponse is a ranked list for one university and period.
type LeaderboardResponse struct {
	UniversityID uint               `json:"university_id"`
	Period       string             `json:"period"`
	Entries      []LeaderboardEntry `json:"entries"`
	GeneratedAt  time.Time          `json:"generated_at"`
	CacheHit     bool               `json:"cache_hit"`
}
