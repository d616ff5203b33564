package ui

// RepeatMode is whether the current item restarts when it ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
)

// Next cycles to the next repeat mode.
func (r RepeatMode) Next() RepeatMode {
	if r == RepeatOff {
		return RepeatOne
	}
	return RepeatOff
}

func (r RepeatMode) String() string {
	if r == RepeatOne {
		return "one"
	}
	return "off"
}

// Icon returns the status bar marker for the mode.
func (r RepeatMode) Icon() string {
	if r == RepeatOne {
		return "[repeat]"
	}
	return ""
}

// ShuffleMode is whether Next picks a random item.
type ShuffleMode int

const (
	ShuffleOff ShuffleMode = iota
	ShuffleOn
)

// Toggle switches between shuffle on and off.
func (s ShuffleMode) Toggle() ShuffleMode {
	if s == ShuffleOn {
		return ShuffleOff
	}
	return ShuffleOn
}

func (s ShuffleMode) Icon() string {
	if s == ShuffleOn {
		return "[shuffle]"
	}
	return ""
}
