package app

import (
	"math/rand"

	"quiz-service/internal/domain"
)

// SelectQuestions draws min(perGame, len(bank)) questions from bank without replacement,
// in random order, each with its options shuffled. perGame <= 0 takes the whole bank.
// The bank is never modified; every returned question owns its own options slice.
func SelectQuestions(bank []domain.Question, perGame int, rnd *rand.Rand) []domain.Question {
	count := len(bank)
	if perGame > 0 {
		count = min(perGame, count)
	}

	selected := make([]domain.Question, 0, count)
	for _, idx := range rnd.Perm(len(bank))[:count] {
		selected = append(selected, bank[idx].Shuffled(rnd))
	}
	return selected
}
