package game

// GameStatus represents the current state of a session
type GameStatus string

const (
	StatusReady   GameStatus = "ready"
	StatusPlaying GameStatus = "playing"
	StatusOver    GameStatus = "over"
)

// Outcome is the terminal result of a play-through.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeFellIn Outcome = "fell_in"
	OutcomeWon    Outcome = "won"
)

// Message returns the headline and the call to action shown for an outcome.
func (o Outcome) Message() (string, string) {
	switch o {
	case OutcomeFellIn:
		return "You fell in!", "Tap to retry"
	case OutcomeWon:
		return "You Won!", "Tap to play again"
	}
	return "", ""
}
