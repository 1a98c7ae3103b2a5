package router

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"web3nav/internal/auth"
	"web3nav/internal/errors"
)

// sessionTokenLookup reads the cookie set at login, then a bearer header for
// API clients.
const sessionTokenLookup = "cookie:" + auth.SessionCookieName + ",header:" + echo.HeaderAuthorization + ":Bearer "

// SessionMiddleware admits requests carrying a valid admin token and stores
// its *auth.Claims under auth.ContextKey. Every failure gets the same 401.
func SessionMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  auth.ContextKey,
		TokenLookup: sessionTokenLookup,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.Validate(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			hErr := errors.Unauthorized()
			return echo.NewHTTPError(hErr.StatusCode, hErr.ToErrorResponse()).SetInternal(err)
		},
	})
}
