package model

import "time"

// Account — golfer account (owning entity for individual live rounds).
type Account struct {
	ID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"size:120;not null"`
	OwnerUserID string    `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Account) TableName() string { return "accounts" }

// AccountAdmin — a user with the administrative role on an account. Admins
// may score the account's team games alongside the owner.
type AccountAdmin struct {
	ID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID string `gorm:"type:uuid;not null;index"`
	UserID    string `gorm:"type:uuid;not null;index"`
}

func (AccountAdmin) TableName() string { return "account_admins" }

// Course — static golf course.
type Course struct {
	ID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name  string `gorm:"size:160;not null"`
	City  string `gorm:"size:120"`
	Holes int    `gorm:"not null;default:18"`
}

func (Course) TableName() string { return "courses" }

// CourseTee — tee set belonging to a course.
type CourseTee struct {
	ID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseID string  `gorm:"type:uuid;not null;index"`
	Name     string  `gorm:"size:60;not null"`
	Rating   float64 `gorm:"not null"`
	Slope    int     `gorm:"not null"`
	Par      int     `gorm:"not null;default:72"`
}

func (CourseTee) TableName() string { return "course_tees" }

// ScheduledGame — a scheduled team game (owning entity for team live
// sessions). The organizing account's admins are the designated scorers.
type ScheduledGame struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID string    `gorm:"type:uuid;not null;index"`
	HomeTeam  string    `gorm:"size:120;not null"`
	AwayTeam  string    `gorm:"size:120;not null"`
	GameDate  time.Time `gorm:"not null"`
}

func (ScheduledGame) TableName() string { return "scheduled_games" }

// LiveRoundSession — one in-progress individual round, at most one
// non-terminal row per account.
type LiveRoundSession struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	AccountID    string     `gorm:"type:uuid;not null;index"`
	CourseID     string     `gorm:"type:uuid;not null"`
	TeeID        string     `gorm:"type:uuid;not null"`
	Status       string     `gorm:"size:20;not null;default:active"`
	CurrentHole  int        `gorm:"not null;default:1"`
	StartingHole int        `gorm:"not null;default:1"`
	HolesPlayed  int        `gorm:"not null"`
	DateRecorded time.Time  `gorm:"not null"`
	StartedBy    string     `gorm:"type:uuid;not null"`
	StartedAt    time.Time  `gorm:"not null"`
	EndedAt      *time.Time `gorm:"column:ended_at"`

	Scores []LiveRoundScore `gorm:"foreignKey:SessionID"`
}

func (LiveRoundSession) TableName() string { return "live_round_sessions" }

// LiveRoundScore — strokes for one hole, unique per (session, hole).
type LiveRoundScore struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"type:uuid;not null;index;uniqueIndex:ux_round_score,priority:1"`
	Hole      int       `gorm:"not null;uniqueIndex:ux_round_score,priority:2"`
	Strokes   int       `gorm:"not null"`
	EnteredBy string    `gorm:"type:uuid;not null"`
	EnteredAt time.Time `gorm:"not null"`
}

func (LiveRoundScore) TableName() string { return "live_round_scores" }

// LiveGameSession — one in-progress team game, at most one non-terminal row
// per scheduled game.
type LiveGameSession struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	GameID        string     `gorm:"type:uuid;not null;index"`
	Status        string     `gorm:"size:20;not null;default:active"`
	CurrentInning int        `gorm:"not null;default:1"`
	Innings       int        `gorm:"not null"`
	DateRecorded  time.Time  `gorm:"not null"`
	StartedBy     string     `gorm:"type:uuid;not null"`
	StartedAt     time.Time  `gorm:"not null"`
	EndedAt       *time.Time `gorm:"column:ended_at"`

	Scores []LiveGameScore `gorm:"foreignKey:SessionID"`
}

func (LiveGameSession) TableName() string { return "live_game_sessions" }

// LiveGameScore — runs for one inning and side, unique per
// (session, inning, side).
type LiveGameScore struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	SessionID string    `gorm:"type:uuid;not null;index;uniqueIndex:ux_game_score,priority:1"`
	Inning    int       `gorm:"not null;uniqueIndex:ux_game_score,priority:2"`
	Side      string    `gorm:"size:8;not null;uniqueIndex:ux_game_score,priority:3"`
	Runs      int       `gorm:"not null"`
	EnteredBy string    `gorm:"type:uuid;not null"`
	EnteredAt time.Time `gorm:"not null"`
}

func (LiveGameScore) TableName() string { return "live_game_scores" }

// Scorecard — permanent result of a finalized individual round.
type Scorecard struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	AccountID    string    `gorm:"type:uuid;not null;index"`
	CourseID     string    `gorm:"type:uuid;not null"`
	TeeID        string    `gorm:"type:uuid;not null"`
	DateRecorded time.Time `gorm:"not null"`
	HolesPlayed  int       `gorm:"not null"`
	TotalStrokes int       `gorm:"not null"`
	RecordedBy   string    `gorm:"type:uuid;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Holes []ScorecardHole `gorm:"foreignKey:ScorecardID"`
}

func (Scorecard) TableName() string { return "scorecards" }

// ScorecardHole — one hole line on a scorecard. Strokes 0 means the hole was
// never recorded before finalize.
type ScorecardHole struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ScorecardID string `gorm:"type:uuid;not null;index"`
	Hole        int    `gorm:"not null"`
	Strokes     int    `gorm:"not null"`
}

func (ScorecardHole) TableName() string { return "scorecard_holes" }

// GameResult — permanent result of a finalized team game.
type GameResult struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	GameID     string    `gorm:"type:uuid;not null;index"`
	Innings    int       `gorm:"not null"`
	HomeRuns   int       `gorm:"not null"`
	AwayRuns   int       `gorm:"not null"`
	RecordedBy string    `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Lines []GameResultLine `gorm:"foreignKey:ResultID"`
}

func (GameResult) TableName() string { return "game_results" }

// GameResultLine — runs for one inning and side on a game result.
type GameResultLine struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	ResultID string `gorm:"type:uuid;not null;index"`
	Inning   int    `gorm:"not null"`
	Side     string `gorm:"size:8;not null"`
	Runs     int    `gorm:"not null"`
}

func (GameResultLine) TableName() string { return "game_result_lines" }
