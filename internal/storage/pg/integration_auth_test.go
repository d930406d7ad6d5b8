package pg

import (
	"net/http"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
	internal_errors "github.com/Camillus83/ImageUploadAPI/internal/errors"
)

func requireStatusCode(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok, "expected ErrorWithStatusCode, got %T: %v", err, err)
	assert.Equal(t, status, e.StatusCode)
}

// mustRole fetches one of the seeded roles.
func mustRole(t *testing.T, name string) domain.Role {
	t.Helper()
	role, err := storage.RoleByName(name)
	require.NoError(t, err)
	return role
}

func mustUser(t *testing.T, username string, roleName string) domain.User {
	t.Helper()
	var role *domain.Role
	if roleName != "" {
		r := mustRole(t, roleName)
		role = &r
	}
	id, err := storage.SaveUser(domain.User{Username: username, PassHash: "hash", Role: role, Active: true})
	require.NoError(t, err)
	user, err := storage.UserById(id)
	require.NoError(t, err)
	return user
}

func TestSaveUser(t *testing.T) {
	role := mustRole(t, domain.RoleBasic)

	id, err := storage.SaveUser(domain.User{Username: "saveuser", PassHash: "hash", Role: &role, Active: true})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = storage.SaveUser(domain.User{Username: "saveuser", PassHash: "hash", Role: &role, Active: true})
	requireStatusCode(t, err, http.StatusConflict)
}

func TestUserByName(t *testing.T) {
	mustUser(t, "byname", domain.RolePremium)

	user, err := storage.UserByName("byname")
	require.NoError(t, err)
	assert.Equal(t, "byname", user.Username)
	assert.Equal(t, "hash", user.PassHash)
	assert.True(t, user.Active)
	require.NotNil(t, user.Role)
	assert.Equal(t, domain.RolePremium, user.Role.Name)
	assert.Equal(t, 400, user.Role.ThumbnailHeight)
	assert.True(t, user.Role.AllowOriginal)
	assert.False(t, user.Role.AllowExpiring)

	_, err = storage.UserByName("nonexistent")
	requireStatusCode(t, err, http.StatusNotFound)
}

func TestUserWithoutRole(t *testing.T) {
	user := mustUser(t, "roleless", "")

	assert.Nil(t, user.Role)
}

func TestUsers(t *testing.T) {
	mustUser(t, "list-a", domain.RoleBasic)
	mustUser(t, "list-b", domain.RoleEnterprise)

	users, err := storage.Users()
	require.NoError(t, err)

	byName := make(map[string]domain.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	require.Contains(t, byName, "list-a")
	require.Contains(t, byName, "list-b")
	require.NotNil(t, byName["list-b"].Role)
	assert.True(t, byName["list-b"].Role.AllowExpiring)
}

func TestRoleByName(t *testing.T) {
	basic := mustRole(t, domain.RoleBasic)
	assert.Equal(t, 200, basic.ThumbnailHeight)
	assert.False(t, basic.AllowOriginal)
	assert.False(t, basic.AllowExpiring)

	enterprise := mustRole(t, domain.RoleEnterprise)
	assert.Equal(t, 400, enterprise.ThumbnailHeight)
	assert.True(t, enterprise.AllowOriginal)
	assert.True(t, enterprise.AllowExpiring)

	_, err := storage.RoleByName("Nonexistent")
	requireStatusCode(t, err, http.StatusNotFound)
}

func TestSaveRole(t *testing.T) {
	id, err := storage.SaveRole(domain.Role{Name: "Partner", ThumbnailHeight: 213, AllowOriginal: true})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	saved, err := storage.RoleByName("Partner")
	require.NoError(t, err)
	assert.Equal(t, 213, saved.ThumbnailHeight)
	assert.True(t, saved.AllowOriginal)

	_, err = storage.SaveRole(domain.Role{Name: "Partner", ThumbnailHeight: 100})
	requireStatusCode(t, err, http.StatusConflict)
}
