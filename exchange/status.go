package exchange

// transitions lists every status each status may move to. A status absent
// from the table, or mapped to nothing, is terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusCompleted},
	StatusRejected:  nil,
	StatusCancelled: nil,
	StatusCompleted: nil,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionTargets[a]
	return ok
}

var actionTargets = map[Action]Status{
	ActionAccept:   StatusAccepted,
	ActionReject:   StatusRejected,
	ActionCancel:   StatusCancelled,
	ActionComplete: StatusCompleted,
}

// Target is the status an action moves an exchange to.
func (a Action) Target() Status {
	return actionTargets[a]
}

// ParseAction maps a wire value onto an Action.
func ParseAction(raw string) (Action, error) {
	a := Action(raw)
	if !a.Valid() {
		return "", ErrInvalidAction
	}
	return a, nil
}

// ParseDirection maps a wire value onto a Direction. Empty means all.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(raw); d {
	case "":
		return DirectionAll, nil
	case DirectionAll, DirectionSent, DirectionReceived:
		return d, nil
	default:
		return "", ErrInvalidDirection
	}
}

// ParseStatus maps a wire value onto a Status. Empty means no status filter.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if raw == "" || s.Valid() {
		return s, nil
	}
	return "", ErrInvalidStatus
}
