package domain

import "fmt"

// ScreenState состояние экрана поиска вместо набора булевых флагов
type ScreenState int

const (
	StateIdle ScreenState = iota
	StateSyncing
	StateSearchingInitial
	StateReady
	StateLoadingMore
	StateClosed
)

var stateNames = map[ScreenState]string{
	StateIdle:             "idle",
	StateSyncing:          "syncing",
	StateSearchingInitial: "searching_initial",
	StateReady:            "ready",
	StateLoadingMore:      "loading_more",
	StateClosed:           "closed",
}

func (s ScreenState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s ScreenState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ScreenState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("неизвестное состояние экрана: %q", text)
}

// Busy true, пока экран ждёт ответа бэкенда
func (s ScreenState) Busy() bool {
	return s == StateSyncing || s == StateSearchingInitial || s == StateLoadingMore
}

var transitions = map[ScreenState][]ScreenState{
	StateIdle:             {StateSyncing, StateSearchingInitial, StateReady},
	StateSyncing:          {StateSearchingInitial, StateReady},
	StateSearchingInitial: {StateReady, StateSearchingInitial},
	StateReady:            {StateSearchingInitial, StateLoadingMore, StateReady},
	StateLoadingMore:      {StateReady, StateSearchingInitial},
}

// CanTransition проверяет допустимость перехода. В Closed можно перейти из любого состояния,
// выйти из него нельзя.
func (s ScreenState) CanTransition(to ScreenState) bool {
	if s == StateClosed {
		return false
	}
	if to == StateClosed {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
