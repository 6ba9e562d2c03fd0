package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wolfman30/salon-booking/internal/salonapi"
	"github.com/wolfman30/salon-booking/internal/session"
)

type storedSession struct {
	Token string         `json:"token"`
	User  *salonapi.User `json:"user,omitempty"`
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "barber", "session.json")
}

// loadSession restores the session saved at path. A missing file yields a
// signed-out session.
func loadSession(path string) (*session.Session, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return session.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	if stored.User == nil {
		return session.NewWithToken(stored.Token), nil
	}
	sess := session.New()
	sess.SignIn(stored.Token, *stored.User)
	return sess, nil
}

// saveSession writes the session to path, or removes the file once signed out.
func saveSession(path string, sess *session.Session) error {
	if !sess.Authenticated() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}
	stored := storedSession{Token: sess.Token()}
	if user, ok := sess.User(); ok {
		stored.User = &user
	}
	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
