package quiz

// Item is one listening-quiz unit: a spoken English sentence, its Japanese
// translation, a reply line, distractor answers, and pre-rendered media.
// Items are immutable once fetched; the only out-of-band mutation the app
// tolerates is an admin clearing the image, which arrives as an empty
// ImageURL and falls back to the scene label.
type Item struct {
	ID          string `json:"id" validate:"required"`
	Sentence    string `json:"sentence" validate:"required"`
	Translation string `json:"translation" validate:"required"`
	Reply       string `json:"reply"`

	// Distractors are wrong answers shown alongside the translation.
	Distractors []string `json:"distractors"`

	// AudioSentence is the primary English utterance clip.
	AudioSentence string `json:"audioSentence" validate:"omitempty,url"`
	// AudioReply is the Japanese reply clip.
	AudioReply string `json:"audioReply" validate:"omitempty,url"`
	// AudioReplyEn is the optional English reply clip.
	AudioReplyEn string `json:"audioReplyEn" validate:"omitempty,url"`

	// ImageURL is the optional two-panel scene image. Empty means no image
	// (never uploaded, or removed by an admin edit).
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
	// SceneLabel is the text fallback shown when no image is displayed.
	SceneLabel string `json:"sceneLabel"`

	// Difficulty and WordCount are the pool filters the item was served under.
	Difficulty string `json:"difficulty"`
	WordCount  int    `json:"wordCount"`
}

// HasImage reports whether the item still carries a scene image.
func (it Item) HasImage() bool {
	return it.ImageURL != ""
}

// AudioChain returns the playback chain for the item: the primary utterance
// followed by one reply clip. The reply is chosen by the live setting value —
// nativeReply picks the Japanese clip, otherwise the English clip when the
// item has one. Missing clips are skipped rather than leaving gaps.
func (it Item) AudioChain(nativeReply bool) []string {
	chain := make([]string, 0, 2)
	if it.AudioSentence != "" {
		chain = append(chain, it.AudioSentence)
	}

	reply := it.AudioReply
	if !nativeReply && it.AudioReplyEn != "" {
		reply = it.AudioReplyEn
	}
	if reply != "" {
		chain = append(chain, reply)
	}
	return chain
}

// MediaURLs returns every remote asset the item references, for cache warm-up.
func (it Item) MediaURLs() []string {
	urls := make([]string, 0, 4)
	for _, u := range []string{it.AudioSentence, it.AudioReply, it.AudioReplyEn, it.ImageURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
