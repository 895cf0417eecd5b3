package session

// Mode selects one of the session flow variants.
type Mode int

const (
	// ModeStandard shows the scene panel and waits for a manual advance.
	ModeStandard Mode = iota
	// ModeImmersion never shows the scene image, only the location label.
	ModeImmersion
	// ModeRapid auto-advances to the next item shortly after a correct answer.
	ModeRapid
)

func (m Mode) String() string {
	switch m {
	case ModeImmersion:
		return "immersion"
	case ModeRapid:
		return "rapid"
	default:
		return "standard"
	}
}

// ParseMode maps a flag value to a Mode, defaulting to standard.
func ParseMode(s string) Mode {
	switch s {
	case "immersion":
		return ModeImmersion
	case "rapid":
		return ModeRapid
	default:
		return ModeStandard
	}
}
