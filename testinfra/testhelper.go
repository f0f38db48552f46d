package testinfra

import (
	"claimflow/authority"
	"claimflow/session"
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx builds a session with the given perms, e.g. "manager_1"
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	worldRoles := authority.WorldRoles{}
	for _, perm := range perms {
		idx := strings.Index(perm, "_")
		if idx > 0 {
			role := perm[0:idx]
			worldId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			worldRoles = append(worldRoles, authority.WorldRole{WorldID: worldId, Role: role})
		}
	}

	return &session.Session{Identity: session.Identity{ID: uid}, Perms: perms, WorldRoles: worldRoles,
		Token: "test-token", Context: context.Background()}
}

// ExecuteRequest runs the request against the router and returns status,
// body and headers.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	defer resp.Body.Close()
	bodyBytes, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(bodyBytes), resp.Header
}
