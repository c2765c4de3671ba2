package appointment

// transitions lists the legal edges of the status machine. Statuses without
// an entry are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to. Requests on a terminal appointment are
// rejected, never ignored.
func Transition(from, to Status) error {
	if _, err := ParseStatus(string(to)); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
