package gate

// AttemptOutcome is the verdict after a wrong challenge answer has been
// counted.
type AttemptOutcome struct {
	Remaining int
	Exhausted bool
}

// DecideAttempt evaluates an already-incremented attempt count against the
// live maximum. Pure so it can be exercised exhaustively.
func DecideAttempt(attempts, maxAttempts int) AttemptOutcome {
	remaining := maxAttempts - attempts

	return AttemptOutcome{
		Remaining: remaining,
		Exhausted: remaining <= 0,
	}
}
