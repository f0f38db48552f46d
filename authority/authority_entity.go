package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasGlobalViewRole() bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), "system:") {
			return true
		}
	}
	return false
}

func (c Permissions) HasRoleSuffix(suffix string) bool {
	for _, v := range c {
		if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// HasWorldViewPerm reports whether the dossiers of a world are visible.
func (c Permissions) HasWorldViewPerm(worldId types.ID) bool {
	return c.HasGlobalViewRole() || c.HasRoleSuffix("_"+worldId.String())
}

type WorldRole struct {
	WorldID types.ID `json:"worldId"`
	Role    string   `json:"role"`
}

type WorldRoles []WorldRole

func (c WorldRoles) HasWorld(worldId types.ID) bool {
	for _, v := range c {
		if v.WorldID == worldId {
			return true
		}
	}
	return false
}
