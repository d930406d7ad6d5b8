package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
)

func TestSizesFor(t *testing.T) {
	policy := NewRolePolicy(&MockRoleStorage{})

	t.Run("basic gets only the basic height", func(t *testing.T) {
		heights, err := policy.SizesFor(seededRole(domain.RoleBasic))

		require.NoError(t, err)
		assert.Equal(t, []int{200}, heights)
	})

	t.Run("premium stacks basic and premium heights", func(t *testing.T) {
		heights, err := policy.SizesFor(seededRole(domain.RolePremium))

		require.NoError(t, err)
		assert.Equal(t, []int{200, 400}, heights)
	})

	t.Run("enterprise gets the same heights as premium", func(t *testing.T) {
		heights, err := policy.SizesFor(seededRole(domain.RoleEnterprise))

		require.NoError(t, err)
		assert.Equal(t, []int{200, 400}, heights)
	})

	t.Run("custom role gets exactly its own height", func(t *testing.T) {
		custom := &domain.Role{Id: 7, Name: "Partner", ThumbnailHeight: 213}

		heights, err := policy.SizesFor(custom)

		require.NoError(t, err)
		assert.Equal(t, []int{213}, heights)
	})

	t.Run("duplicate tier heights collapse to one", func(t *testing.T) {
		storage := &MockRoleStorage{
			RoleByNameFunc: func(name string) (domain.Role, error) {
				// Basic and Premium configured with the same height.
				return domain.Role{Name: name, ThumbnailHeight: 300}, nil
			},
		}
		p := NewRolePolicy(storage)

		heights, err := p.SizesFor(seededRole(domain.RolePremium))

		require.NoError(t, err)
		assert.Equal(t, []int{300}, heights)
	})

	t.Run("nil role is an error", func(t *testing.T) {
		_, err := policy.SizesFor(nil)

		assert.Error(t, err)
	})
}

func TestShowsOriginal(t *testing.T) {
	policy := NewRolePolicy(&MockRoleStorage{})

	t.Run("enterprise sees the original regardless of the flag", func(t *testing.T) {
		role := &domain.Role{Name: domain.RoleEnterprise, AllowOriginal: false}

		assert.True(t, policy.ShowsOriginal(role))
	})

	t.Run("premium sees the original via the flag", func(t *testing.T) {
		assert.True(t, policy.ShowsOriginal(seededRole(domain.RolePremium)))
	})

	t.Run("basic does not see the original", func(t *testing.T) {
		assert.False(t, policy.ShowsOriginal(seededRole(domain.RoleBasic)))
	})

	t.Run("custom role follows its flag", func(t *testing.T) {
		assert.True(t, policy.ShowsOriginal(&domain.Role{Name: "Partner", AllowOriginal: true}))
		assert.False(t, policy.ShowsOriginal(&domain.Role{Name: "Partner"}))
	})

	t.Run("nil role never sees the original", func(t *testing.T) {
		assert.False(t, policy.ShowsOriginal(nil))
	})
}
