package models

var sessionTransitions = map[SessionStatus][]SessionStatus{
	StatusScheduled: {StatusLive},
	StatusLive:      {StatusPaused, StatusCompleted},
	StatusPaused:    {StatusLive, StatusCompleted},
}

// IsValidStatusTransition reports whether a session may move from current to
// next. Completed is terminal.
func IsValidStatusTransition(current, next SessionStatus) bool {
	for _, allowed := range sessionTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known session statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}
