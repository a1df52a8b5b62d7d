package tracker

// Category can be one of:
//   - Strength
//   - Cardio
//   - Flexibility
//   - Balance
type Category string

const (
	CategoryStrength    Category = "Strength"
	CategoryCardio      Category = "Cardio"
	CategoryFlexibility Category = "Flexibility"
	CategoryBalance     Category = "Balance"
)

// Categories in the order they are reported in.
var Categories = []Category{
	CategoryStrength,
	CategoryCardio,
	CategoryFlexibility,
	CategoryBalance,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryStrength,
		CategoryCardio,
		CategoryFlexibility,
		CategoryBalance:
		return true
	default:
		return false
	}
}

// Exercise is one prescribed activity of the day. Only Completed ever changes.
type Exercise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Reps      int      `json:"reps"`
	Sets      int      `json:"sets"`
	Category  Category `json:"category"`
	Icon      string   `json:"icon,omitempty"`
	Completed bool     `json:"completed"`
}

// DailyCompletion is the ledger entry of a single sealed day.
type DailyCompletion struct {
	Date      DateKey `json:"date"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
}

// DefaultCatalog returns a fresh copy of the built-in exercise list, nothing completed.
func DefaultCatalog() []Exercise {
	return []Exercise{
		{ID: "1", Name: "Push-ups", Reps: 15, Sets: 3, Category: CategoryStrength, Icon: "💪"},
		{ID: "2", Name: "Squats", Reps: 20, Sets: 3, Category: CategoryStrength, Icon: "🏋️"},
		{ID: "3", Name: "Jumping Jacks", Reps: 30, Sets: 2, Category: CategoryCardio, Icon: "🏃"},
		{ID: "4", Name: "Plank", Reps: 60, Sets: 2, Category: CategoryStrength, Icon: "🧘"},
		{ID: "5", Name: "Lunges", Reps: 12, Sets: 2, Category: CategoryStrength, Icon: "👟"},
		{ID: "6", Name: "Stretching", Reps: 30, Sets: 1, Category: CategoryFlexibility, Icon: "🤸"},
	}
}

func cloneExercises(exercises []Exercise) []Exercise {
	cloned := make([]Exercise, len(exercises))
	copy(cloned, exercises)
	return cloned
}

func cloneHistory(history []DailyCompletion) []DailyCompletion {
	cloned := make([]DailyCompletion, len(history))
	copy(cloned, history)
	return cloned
}

func completedCount(exercises []Exercise) int {
	count := 0
	for _, e := range exercises {
		if e.Completed {
			count++
		}
	}
	return count
}

func allCompleted(exercises []Exercise) bool {
	for _, e := range exercises {
		if !e.Completed {
			return false
		}
	}
	return true
}

func clearCompleted(exercises []Exercise) {
	for i := range exercises {
		exercises[i].Completed = false
	}
}
