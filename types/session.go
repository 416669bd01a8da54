package types

// View is the top-level view selected by the session state.
type View int

const (
	ViewLoggedOut View = iota
	ViewLoggedIn
)

func (v View) String() string {
	if v == ViewLoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Session is the authentication state held by the session store.
// The token is opaque to the client and never refreshed.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Token           string `json:"-"`
	UserName        string `json:"userName,omitempty"`
	Email           string `json:"email,omitempty"`
}

// View derives the active top-level view.
func (s Session) View() View {
	if s.IsAuthenticated {
		return ViewLoggedIn
	}
	return ViewLoggedOut
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserName string `json:"user_name"`
}

// DemoCredentials are the preset accounts offered on the login view.
var DemoCredentials = map[string]Credentials{
	"admin": {Email: "admin@company.com", Password: "admin123"},
	"user":  {Email: "user1@company.com", Password: "user123"},
}
