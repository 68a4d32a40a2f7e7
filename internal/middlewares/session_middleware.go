package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const accountIDLocal = "accountID"

// AccountResolver extracts the authenticated account id from a request. The
// fronting identity service performs the actual authentication; this core
// trusts what it forwards.
type AccountResolver interface {
	ResolveAccount(c fiber.Ctx) (string, error)
}

// HeaderAccountResolver reads the account id the identity proxy sets on
// every request it forwards.
type HeaderAccountResolver struct {
	Header string
}

func NewHeaderAccountResolver() *HeaderAccountResolver {
	return &HeaderAccountResolver{Header: "X-Account-ID"}
}

func (r *HeaderAccountResolver) ResolveAccount(c fiber.Ctx) (string, error) {
	accountID := c.Get(r.Header)
	if accountID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Not authenticated")
	}

	return accountID, nil
}

// SessionMiddleware resolves the account id and stores it on the request
// context for the controllers.
func SessionMiddleware(resolver AccountResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		accountID, err := resolver.ResolveAccount(c)
		if err != nil {
			log.Debug().Str("path", c.Path()).Msg("Rejected request without account identity")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		c.Locals(accountIDLocal, accountID)

		return c.Next()
	}
}

// AccountID returns the account id the session middleware resolved, or an
// empty string when the middleware did not run.
func AccountID(c fiber.Ctx) string {
	accountID, _ := c.Locals(accountIDLocal).(string)

	return accountID
}
