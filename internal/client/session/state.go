package session

// State is the lifecycle phase of the client session.
type State int

const (
	// Idle is the state before Start is called.
	Idle State = iota
	// Loading covers startup resolution and an in-flight login.
	Loading
	// Anonymous means no credential is held; login is required.
	Anonymous
	// Authenticated means a credential is held and an identity is resolved.
	Authenticated
	// Refreshing means a credential exchange is in flight; the session
	// stays authenticated until the exchange settles.
	Refreshing
	// LoggedOut is terminal: entered on explicit logout or refresh failure.
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Identity is the client-side view of the logged-in user.
type Identity struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Snapshot is one consistent observation of the session. Snapshots are
// immutable; the manager publishes a new one for every transition, so
// observers never see a half-updated state.
type Snapshot struct {
	State    State
	Identity *Identity
	Err      error
}

// IsAuthenticated reports whether an identity is attached. It is true
// exactly when Identity is non-nil, including while a refresh is in flight.
func (s Snapshot) IsAuthenticated() bool {
	return s.Identity != nil
}
