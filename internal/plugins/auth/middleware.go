package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/beritabank/internal/apperror"
)

// contextKeyAccount is where RequireAuth stores the resolved account. Other
// plugins read it through GetAccount.
const contextKeyAccount = "auth_account"

// RequireAuth returns middleware that resolves the bearer token in the
// Authorization header and injects the account into the request context.
// A missing header is Unauthenticated; anything else that does not resolve
// is InvalidToken.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" {
				return apperror.NewUnauthenticated("Token is missing")
			}

			token, ok := bearerToken(header)
			if !ok {
				return apperror.NewInvalidToken("Invalid token format")
			}

			acc, err := service.ResolveToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeyAccount, acc)
			return next(c)
		}
	}
}

// bearerToken extracts the credential from a "Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// --- Exported getters for other plugins ---

// GetAccount retrieves the authenticated account from the Echo context.
// Returns nil if RequireAuth did not run.
func GetAccount(c echo.Context) *Account {
	acc, ok := c.Get(contextKeyAccount).(*Account)
	if !ok {
		return nil
	}
	return acc
}

// GetAccountID retrieves the authenticated account's ID from the Echo
// context. Returns empty string if the request is not authenticated.
func GetAccountID(c echo.Context) string {
	if acc := GetAccount(c); acc != nil {
		return acc.ID
	}
	return ""
}
