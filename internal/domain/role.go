package domain

type RoleId = int64

// Baseline role names. Roles with any other name are treated as custom:
// they get exactly one thumbnail size (their own) and expose the original
// only when AllowOriginal is set.
const (
	RoleBasic      = "Basic"
	RolePremium    = "Premium"
	RoleEnterprise = "Enterprise"
)

// Role groups users into permission tiers. ThumbnailHeight is the height (px)
// of the thumbnail this role contributes; AllowOriginal and AllowExpiring gate
// access to the un-derived original and to expiring links.
type Role struct {
	Id              RoleId
	Name            string
	ThumbnailHeight int
	AllowOriginal   bool
	AllowExpiring   bool
}

func (r *Role) IsBaseline() bool {
	return r.Name == RoleBasic || r.Name == RolePremium || r.Name == RoleEnterprise
}
