package course

// Session is the context shared by consecutive rounds of one run: the round
// counter and the best score seen so far. A round updates it; nothing else
// in the package keeps state between rounds.
type Session struct {
	round     int
	highScore int
}

// NewSession returns a session that has not started any round.
func NewSession() *Session {
	return &Session{}
}

// Round returns the number of the current (or last) round, starting at 1.
func (s *Session) Round() int { return s.round }

// HighScore returns the best round score observed in this session.
func (s *Session) HighScore() int { return s.highScore }

func (s *Session) beginRound() int {
	s.round++
	return s.round
}

func (s *Session) observeScore(score int) {
	if score > s.highScore {
		s.highScore = score
	}
}
