package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
	"github.com/patrimoine-ma/patrimoine-api/internal/repository"
	"github.com/patrimoine-ma/patrimoine-api/internal/roles"
	"github.com/patrimoine-ma/patrimoine-api/internal/utils"
)

const currentUserKey = "current_user"

// LoadIdentity resolves the authenticated account behind the token subject.
// Groups are loaded fresh on every request so a membership toggle takes
// effect immediately, without waiting for token expiry.
func LoadIdentity(users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		user, err := users.GetByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.SendError(c, fiber.StatusUnauthorized, "account no longer exists")
			}
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load account")
		}

		c.Locals(currentUserKey, user)
		c.Locals("user_role", string(roles.Resolve(user)))

		return c.Next()
	}
}

// CurrentUser returns the account bound to the request, if identity
// resolution ran.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(currentUserKey).(models.User)
	return user, ok
}
