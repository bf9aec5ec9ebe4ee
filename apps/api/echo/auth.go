package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core/user"
)

const (
	contextUserKey  = "user"
	contextTokenKey = "token"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

// authError carries failures of the token lookup itself, as opposed to bad credentials.
type authError struct {
	error
}

// newAuthMiddleware resolves `Authorization: Bearer <key>` into the context user.
func newAuthMiddleware(svc user.Service) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, ctx echo.Context) (bool, error) {
			usr, err := svc.Authenticate(ctx.Request().Context(), key)
			if err != nil {
				switch errors.Cause(err) {
				case user.ErrInvalidToken, user.ErrAccountDeactivated:
					return false, err
				}
				return false, authError{errors.Wrap(err, "authenticating")}
			}
			ctx.Set(contextUserKey, usr)
			ctx.Set(contextTokenKey, key)
			return true, nil
		},
		ErrorHandler: func(err error, ctx echo.Context) error {
			if aErr, ok := err.(authError); ok {
				return aErr.error
			}
			if errors.Cause(err) == user.ErrAccountDeactivated {
				return errAccountDeactivated
			}
			return errUnauthorized
		},
	})
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUsrNotFoundInCtx
}

func getContextToken(ctx echo.Context) string {
	key, _ := ctx.Get(contextTokenKey).(string)
	return key
}
