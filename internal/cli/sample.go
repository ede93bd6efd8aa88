package cli

import (
	"strings"

	"quiz-session-engine/internal/domain"
)

// sampleQuestions backs the static loader and the migrate --seed flag.
func sampleQuestions() map[string][]domain.Question {
	opts := func(correct string, texts ...string) []domain.Option {
		keys := []domain.OptionKey{domain.AnswerA, domain.AnswerB, domain.AnswerC, domain.AnswerD, domain.AnswerE, domain.AnswerF}
		out := make([]domain.Option, 0, len(texts))
		for i, text := range texts {
			key := keys[i]
			out = append(out, domain.Option{Key: key, Text: text, Correct: strings.Contains(correct, key.Label())})
		}
		return out
	}
	return map[string][]domain.Question{
		"linux": {
			{ID: 1, Category: "linux", Difficulty: domain.DifficultyEasy, Text: "Which command lists directory contents?",
				Options: opts("A", "ls", "cd", "pwd", "mv"), Explanation: "ls lists files in a directory."},
			{ID: 2, Category: "linux", Difficulty: domain.DifficultyMedium, Text: "Which file stores user account information?",
				Options: opts("B", "/etc/shadow", "/etc/passwd", "/etc/group", "/etc/hosts")},
			{ID: 3, Category: "linux", Difficulty: domain.DifficultyHard, Text: "Which of these are valid shells?",
				Options: opts("AC", "bash", "vim", "zsh", "grep"), MultipleCorrect: true},
		},
		"docker": {
			{ID: 4, Category: "docker", Difficulty: domain.DifficultyEasy, Text: "Which command lists running containers?",
				Options: opts("A", "docker ps", "docker images", "docker build", "docker pull")},
			{ID: 5, Category: "docker", Difficulty: domain.DifficultyMedium, Text: "Which Dockerfile instructions add files to an image?",
				Options: opts("BD", "RUN", "COPY", "EXPOSE", "ADD"), MultipleCorrect: true},
		},
	}
}
