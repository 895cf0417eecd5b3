package session

// sessionPrimedMsg is sent when the initial batch fetch completes.
type sessionPrimedMsg struct {
	Err error
}

// sceneLoadedMsg is sent when the scene asset of an item has resolved
// (or immediately when there is nothing to load).
type sceneLoadedMsg struct {
	ItemID string
	Err    error
}

// chainDoneMsg is sent when the full utterance+reply audio chain of an item
// finished playing.
type chainDoneMsg struct {
	ItemID string
}

// autoAdvanceMsg fires after the rapid-mode feedback dwell.
type autoAdvanceMsg struct {
	ItemID string
}
