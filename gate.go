package clinic

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

// Authorize performs the role membership check for a route's RoleSet.
// It must run after token validation and identity resolution: a nil
// identity means the pipeline was short-circuited and yields
// ErrUnauthenticated, which is distinct from a role denial.
func Authorize(identity Identity, allowed RoleSet) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if allowed.Contains(identity.Role()) {
		return nil
	}

	return errors.New(
		fmt.Sprintf("access denied: requires one of the roles: %s", allowed),
		errors.CategoryAuthz,
	).
		WithTextCode(TextCodeRoleDenied).
		WithCode(errors.CodeForbidden).
		WithMetadata(map[string]any{
			"allowed_roles": allowed.Strings(),
			"actor_role":    identity.Role(),
		})
}
