package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/salon-booking/internal/salonapi"
)

func TestSession_Lifecycle(t *testing.T) {
	s := New()
	assert.False(t, s.Authenticated())
	_, ok := s.User()
	assert.False(t, ok)

	var seen []*salonapi.User
	s.OnChange(func(u *salonapi.User) { seen = append(seen, u) })

	s.SignIn("tok", salonapi.User{ID: "u1", Name: "Carla"})
	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok", s.Token())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "Carla", user.Name)

	s.UpdateUser(salonapi.User{ID: "u1", Name: "Carla S", AvatarURL: "https://img/u1.jpg"})
	user, _ = s.User()
	assert.Equal(t, "Carla S", user.Name)
	assert.Equal(t, "tok", s.Token(), "updating the user keeps the token")

	s.SignOut()
	assert.False(t, s.Authenticated())
	_, ok = s.User()
	assert.False(t, ok)

	require.Len(t, seen, 3)
	assert.Equal(t, "Carla", seen[0].Name)
	assert.Equal(t, "Carla S", seen[1].Name)
	assert.Nil(t, seen[2])
}

func TestSession_UserIsCopied(t *testing.T) {
	s := New()
	s.SignIn("tok", salonapi.User{ID: "u1", Name: "Carla"})

	user, _ := s.User()
	user.Name = "mutated"

	again, _ := s.User()
	assert.Equal(t, "Carla", again.Name)
}

func TestSession_NewWithToken(t *testing.T) {
	s := NewWithToken("env-token")
	assert.True(t, s.Authenticated())
	_, ok := s.User()
	assert.False(t, ok)

	var ts salonapi.TokenSource = s
	assert.Equal(t, "env-token", ts.Token())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SignIn("tok", salonapi.User{ID: "u1"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Token()
			_, _ = s.User()
		}()
	}
	wg.Wait()
	assert.True(t, s.Authenticated())
}
