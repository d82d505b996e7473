package models

// Goal bounds and defaults. A user with no stored goal is treated as having
// the defaults, with IsSet=false so the UI can prompt.
const (
	MinWeeklyGoal  = 3
	MaxWeeklyGoal  = 50
	MinMonthlyGoal = 12
	MaxMonthlyGoal = 200

	DefaultWeeklyGoal  = MinWeeklyGoal
	DefaultMonthlyGoal = MinMonthlyGoal
)

type Goal struct {
	WeeklyGoal  int  `json:"weeklyGoal"`
	MonthlyGoal int  `json:"monthlyGoal"`
	IsSet       bool `json:"isSet"`
}

// DefaultGoal returns the goal applied when a user has never set one.
func DefaultGoal() Goal {
	return Goal{
		WeeklyGoal:  DefaultWeeklyGoal,
		MonthlyGoal: DefaultMonthlyGoal,
		IsSet:       false,
	}
}
