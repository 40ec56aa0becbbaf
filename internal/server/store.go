package server

import "sort"

const maxCodeAttempts = 32

// Store holds live sessions by join code. It is owned by the orchestrator
// loop and is not safe for concurrent use.
type Store struct {
	sessions map[string]*GameSession
	newCode  func() (string, error)
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*GameSession),
		newCode:  newJoinCode,
	}
}

// Create assigns a fresh code to session and registers it. Codes already in
// use are redrawn, never overwritten.
func (s *Store) Create(session *GameSession) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.sessions[code]; taken {
			continue
		}
		session.Code = code
		s.sessions[code] = session
		return code, nil
	}
	return "", ErrCodeSpaceExhausted
}

func (s *Store) Get(code string) (*GameSession, bool) {
	session, ok := s.sessions[normalizeCode(code)]
	return session, ok
}

func (s *Store) Remove(code string) {
	delete(s.sessions, normalizeCode(code))
}

func (s *Store) Len() int {
	return len(s.sessions)
}

// Each visits sessions in code order until fn returns false.
func (s *Store) Each(fn func(session *GameSession) bool) {
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if !fn(s.sessions[code]) {
			return
		}
	}
}
