package dialog

import "sync"

// stateMap - карта состояний диалогов по id чата. Доступ к карте защищен
// мьютексом; внутри одного чата реплики обрабатываются строго по одной.
type stateMap struct {
	mu sync.Mutex
	m  map[int64]*State
}

func newStateMap() *stateMap {
	return &stateMap{m: make(map[int64]*State)}
}

func (s *stateMap) get(id int64) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[id]
	return st, ok
}

func (s *stateMap) set(id int64, st *State) {
	s.mu.Lock()
	s.m[id] = st
	s.mu.Unlock()
}

func (s *stateMap) clear(id int64) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}
