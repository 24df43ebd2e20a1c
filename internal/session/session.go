package session

import (
	"os"
	"path/filepath"
	"strings"

	tserrors "github.com/yarango582/tunesplit-web/pkg/errors"
)

// Mocked credentials. This gate is a stand-in for a real account system
// and is not a security boundary.
const (
	mockUsername = "user"
	mockPassword = "password"
)

const flagFile = "logged_in"

// Gate is the mocked login gate. The logged-in flag lives in a small
// file under the data directory; removing it logs the user out.
type Gate struct {
	path string
}

// NewGate creates a gate backed by dataDir.
func NewGate(dataDir string) *Gate {
	return &Gate{path: filepath.Join(dataDir, flagFile)}
}

// Login checks the credentials against the mocked constants and, on
// success, persists the logged-in flag.
func (g *Gate) Login(username, password string) error {
	if username != mockUsername || password != mockPassword {
		return tserrors.ErrInvalidCredentials
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(g.path, []byte("true"), 0644)
}

// LoggedIn reports whether the flag is present and set.
func (g *Gate) LoggedIn() bool {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "true"
}

// Logout clears the flag. Logging out twice is fine.
func (g *Gate) Logout() error {
	err := os.Remove(g.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
