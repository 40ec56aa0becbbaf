package questions

// DefaultSets is the built-in catalog used when no file or database is configured.
func DefaultSets() []Set {
	return []Set{
		{
			ID:        "basic-math",
			Title:     "Basic Math",
			Subject:   "Math",
			CreatedBy: "System",
			Questions: []Question{
				{Prompt: "What is 5 + 7?", Answers: []string{"10", "11", "12", "13"}, Correct: 2},
				{Prompt: "What is 15 - 8?", Answers: []string{"5", "6", "7", "8"}, Correct: 2},
				{Prompt: "What is 6 × 4?", Answers: []string{"20", "22", "24", "26"}, Correct: 2},
				{Prompt: "What is 36 ÷ 6?", Answers: []string{"4", "5", "6", "7"}, Correct: 2},
			},
		},
		{
			ID:        "basic-science",
			Title:     "Basic Science",
			Subject:   "Science",
			CreatedBy: "System",
			Questions: []Question{
				{Prompt: "What planet is known as the Red Planet?", Answers: []string{"Venus", "Mars", "Jupiter", "Saturn"}, Correct: 1},
				{Prompt: "What is H2O commonly known as?", Answers: []string{"Oxygen", "Hydrogen", "Water", "Carbon"}, Correct: 2},
				{Prompt: "How many bones are in the human body?", Answers: []string{"196", "206", "216", "226"}, Correct: 1},
				{Prompt: "What is the speed of light?", Answers: []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "600,000 km/s"}, Correct: 0},
			},
		},
		{
			ID:        "world-history",
			Title:     "World History",
			Subject:   "History",
			CreatedBy: "System",
			Questions: []Question{
				{Prompt: "In what year did World War II end?", Answers: []string{"1943", "1944", "1945", "1946"}, Correct: 2},
				{Prompt: "Who was the first President of the United States?", Answers: []string{"Thomas Jefferson", "George Washington", "John Adams", "Benjamin Franklin"}, Correct: 1},
				{Prompt: "What ancient wonder was located in Egypt?", Answers: []string{"Hanging Gardens", "Colossus", "Pyramids", "Lighthouse"}, Correct: 2},
				{Prompt: "When did the Renaissance begin?", Answers: []string{"12th century", "13th century", "14th century", "15th century"}, Correct: 2},
			},
		},
	}
}
