package quiz

import "math/rand/v2"

// OptionSet is the randomized presentation order of one item's answer
// choices plus the index the correct answer landed on. It is recomputed on
// every fresh presentation of an item and reused verbatim across retries of
// the same presentation, so the learner recognizes the layout.
type OptionSet struct {
	Options      []string
	CorrectIndex int
}

// Shuffle builds an OptionSet from the correct answer and its distractors
// using a uniform Fisher–Yates permutation over the combined set. The
// correct answer is not biased toward any position. Its index is tracked
// through the swaps rather than found by value, so a distractor that reads
// the same as the correct answer cannot steal the index.
func Shuffle(correct string, distractors []string) OptionSet {
	options := make([]string, 0, len(distractors)+1)
	options = append(options, correct)
	options = append(options, distractors...)

	correctIndex := 0
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correctIndex {
		case i:
			correctIndex = j
		case j:
			correctIndex = i
		}
	})

	return OptionSet{Options: options, CorrectIndex: correctIndex}
}

// Evaluate reports whether the selected option index is the correct one.
// Out-of-range indices are simply wrong, never a panic.
func Evaluate(selected, correctIndex int) bool {
	return selected == correctIndex
}
