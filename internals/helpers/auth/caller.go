// file: internals/helpers/auth/caller.go
package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/constants"
)

// Caller is the identity the auth middleware resolved for this request.
// Core services receive it explicitly instead of reading fiber locals,
// so they stay testable without a web request.
type Caller struct {
	UserID uuid.UUID
	Role   string
}

// IsPrivileged reports whether the caller may read drafts and superseded
// versions. Students only ever see the current published version.
func (c Caller) IsPrivileged() bool {
	return constants.RoleIn(c.Role, constants.TeacherAndAbove)
}

func (c Caller) IsStudent() bool { return c.Role == constants.RoleStudent }

// CallerFromContext rebuilds the Caller from locals set by the auth middleware.
func CallerFromContext(c *fiber.Ctx) (Caller, error) {
	rawID, _ := c.Locals("user_id").(string)
	uid, err := uuid.Parse(rawID)
	if err != nil {
		return Caller{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid or missing user ID in token")
	}
	role, _ := c.Locals("role").(string)
	if role == "" {
		role = constants.RoleStudent
	}
	return Caller{UserID: uid, Role: role}, nil
}
