package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/pekoMaster/ticketticket/internal/lifecycle"
)

// RequireVerification returns a middleware that rejects requests from
// users below the given verification level.  The level is read from
// the JWT's "vlevel" claim stored in context by JWTAuth.  The response
// mirrors the API's verification error contract: a 403 with the error
// code and the caller's current level, so clients can prompt for the
// missing verification step.
//
// The claim reflects the level at token issue time.  Handlers that
// gate irreversible operations (listing creation, applying) re-read
// the level from the users table; this middleware exists to fail fast
// and keep unverified traffic off those code paths.
func RequireVerification(required lifecycle.VerificationLevel) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            v, _ := c.Get("vlevel").(string)
            level, err := lifecycle.ParseVerificationLevel(v)
            if err != nil {
                level = lifecycle.LevelUnverified
            }
            if !level.AtLeast(required) {
                return c.JSON(http.StatusForbidden, echo.Map{
                    "error":         "VERIFICATION_REQUIRED",
                    "current_level": string(level),
                    "required":      string(required),
                })
            }
            return next(c)
        }
    }
}
