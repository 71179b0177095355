package host

// GameState mirrors the host client's session state.
type GameState int

const (
	GameStateUnknown GameState = iota
	GameStateStarting
	GameStateLoginScreen
	GameStateLoggingIn
	GameStateLoading
	GameStateLoggedIn
	GameStateConnectionLost
	GameStateHopping
)

// String returns the lower-case name of the game state.
func (s GameState) String() string {
	switch s {
	case GameStateStarting:
		return "starting"
	case GameStateLoginScreen:
		return "login_screen"
	case GameStateLoggingIn:
		return "logging_in"
	case GameStateLoading:
		return "loading"
	case GameStateLoggedIn:
		return "logged_in"
	case GameStateConnectionLost:
		return "connection_lost"
	case GameStateHopping:
		return "hopping"
	default:
		return "unknown"
	}
}

// Drawing reports whether the host draws frames in this state.
// The host suspends drawing while it loads a region or hops worlds.
func (s GameState) Drawing() bool {
	return s != GameStateLoading && s != GameStateHopping
}
