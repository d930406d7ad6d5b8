package service

import (
	"fmt"

	"github.com/Camillus83/ImageUploadAPI/internal/domain"
)

// RoleStorage supplies role records for tier-height lookups.
type RoleStorage interface {
	RoleByName(name string) (domain.Role, error)
}

// RolePolicy maps a role to the ordered set of thumbnail heights it is
// entitled to and decides whether it may see the original.
//
// Baseline tiers stack cumulatively: Basic gets the Basic height, Premium
// gets Basic+Premium, Enterprise also gets Basic+Premium (its own configured
// height is not added) plus the original unconditionally. Any other role is
// custom: exactly its own configured height, original only when AllowOriginal
// is set. The Enterprise/custom asymmetry is deliberate and preserved.
type RolePolicy struct {
	storage RoleStorage
}

func NewRolePolicy(storage RoleStorage) *RolePolicy {
	return &RolePolicy{storage: storage}
}

// SizesFor returns the thumbnail heights role is entitled to, deduplicated,
// in tier order.
func (p *RolePolicy) SizesFor(role *domain.Role) ([]int, error) {
	if role == nil {
		return nil, fmt.Errorf("no role given")
	}

	var heights []int
	switch {
	case role.Name == domain.RoleBasic:
		basic, err := p.storage.RoleByName(domain.RoleBasic)
		if err != nil {
			return nil, err
		}
		heights = []int{basic.ThumbnailHeight}
	case role.IsBaseline(): // Premium or Enterprise
		basic, err := p.storage.RoleByName(domain.RoleBasic)
		if err != nil {
			return nil, err
		}
		premium, err := p.storage.RoleByName(domain.RolePremium)
		if err != nil {
			return nil, err
		}
		heights = []int{basic.ThumbnailHeight, premium.ThumbnailHeight}
	default:
		heights = []int{role.ThumbnailHeight}
	}

	return dedupeHeights(heights), nil
}

// ShowsOriginal reports whether an upload response includes the original's
// URL. Enterprise sees it regardless of AllowOriginal.
func (p *RolePolicy) ShowsOriginal(role *domain.Role) bool {
	if role == nil {
		return false
	}
	return role.Name == domain.RoleEnterprise || role.AllowOriginal
}

func dedupeHeights(heights []int) []int {
	seen := make(map[int]bool, len(heights))
	out := heights[:0]
	for _, h := range heights {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
