package session

import (
	"claimflow/authority"
	"context"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token      string                `json:"token"`
	Identity   Identity              `json:"identity"`
	Perms      authority.Permissions `json:"perms"`
	WorldRoles authority.WorldRoles  `json:"worldRoles"`

	SigningTime time.Time `json:"-"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (s *Session) Clone() Session {
	c := *s
	c.Perms = append(authority.Permissions{}, s.Perms...)
	c.WorldRoles = append(authority.WorldRoles{}, s.WorldRoles...)
	return c
}

// VisibleWorlds parses visible world ids from Session.Perms
func (s *Session) VisibleWorlds() []types.ID {
	var worldIds []types.ID
	for _, v := range s.Perms {
		pairs := strings.Split(v, "_")
		if len(pairs) == 2 {
			id, err := types.ParseID(pairs[1])
			if err != nil {
				continue
			}
			worldIds = append(worldIds, id)
		}
	}
	if worldIds == nil {
		return []types.ID{}
	}
	return worldIds
}
