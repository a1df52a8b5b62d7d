package tracker

import (
	"math"
	"time"
)

var weekdayShortNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type CategoryShare struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Percentage int      `json:"percentage"`
}

type DayProgress struct {
	Day        string  `json:"day"`
	Date       DateKey `json:"date"`
	Percentage int     `json:"percentage"`
	IsToday    bool    `json:"isToday"`
}

type ProgressSummary struct {
	TotalExercisesCompleted int     `json:"totalExercisesCompleted"`
	CompletionRate          int     `json:"completionRate"`
	CurrentStreak           int     `json:"currentStreak"`
	DaysTracked             int     `json:"daysTracked"`
	TodayRatio              float64 `json:"todayRatio"`
}

// percent rounds half up, 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)/float64(whole)*100 + 0.5))
}

// CompletionRatio is the fraction of completed exercises, in [0, 1].
func CompletionRatio(exercises []Exercise) float64 {
	if len(exercises) == 0 {
		return 0
	}
	return float64(completedCount(exercises)) / float64(len(exercises))
}

func CategoryBreakdown(exercises []Exercise) []CategoryShare {
	counts := make(map[Category]int, len(Categories))
	for _, e := range exercises {
		counts[e.Category]++
	}

	shares := make([]CategoryShare, 0, len(Categories))
	for _, c := range Categories {
		if counts[c] == 0 {
			continue
		}
		shares = append(shares, CategoryShare{
			Category:   c,
			Count:      counts[c],
			Percentage: percent(counts[c], len(exercises)),
		})
	}

	return shares
}

// WeeklyProgress reports Sunday through Saturday of the week containing now.
func WeeklyProgress(history []DailyCompletion, now time.Time) []DayProgress {
	byDate := make(map[DateKey]DailyCompletion, len(history))
	for _, entry := range history {
		if _, ok := byDate[entry.Date]; !ok {
			byDate[entry.Date] = entry
		}
	}

	y, m, d := now.Date()
	weekday := int(now.Weekday())

	week := make([]DayProgress, 0, len(weekdayShortNames))
	for i, name := range weekdayShortNames {
		date := DateKeyOf(time.Date(y, m, d-weekday+i, 12, 0, 0, 0, now.Location()))
		progress := DayProgress{
			Day:     name,
			Date:    date,
			IsToday: i == weekday,
		}
		if entry, ok := byDate[date]; ok {
			progress.Percentage = percent(entry.Completed, entry.Total)
		}
		week = append(week, progress)
	}

	return week
}

func Summarize(state State) ProgressSummary {
	total := 0
	for _, entry := range state.CompletionHistory {
		total += entry.Completed
	}

	return ProgressSummary{
		TotalExercisesCompleted: total,
		CompletionRate:          percent(total, len(state.CompletionHistory)*len(state.Exercises)),
		CurrentStreak:           state.Streak,
		DaysTracked:             len(state.CompletionHistory),
		TodayRatio:              CompletionRatio(state.Exercises),
	}
}
