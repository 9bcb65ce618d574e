package domain

// Shuffle returns a uniformly random permutation of cards using the
// provided RNG. The input slice is not mutated.
func Shuffle(cards []Card, rng RNG) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)

	// Fisher-Yates. A naive random-sort comparator would bias the result.
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
