package clinic

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes carried by the rich errors so API clients can branch on a
// stable identifier instead of the human message.
const (
	TextCodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "AUTH_TOKEN_MALFORMED"
	TextCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	TextCodeUnauthenticated    = "AUTH_REQUIRED"
	TextCodeRoleDenied         = "ROLE_DENIED"
	TextCodeSelfDeletion       = "SELF_DELETE_FORBIDDEN"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeDuplicateField     = "DUPLICATE_FIELD"
)

// ErrTokenExpired rejects tokens past their expiry timestamp
var ErrTokenExpired = errors.New("authentication token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed rejects tokens that fail to parse or whose signature
// does not verify; the payload of such a token is never trusted
var ErrTokenMalformed = errors.New("authentication token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is the single error returned for both an unknown
// email and a wrong password, so login cannot be used to enumerate accounts
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated fires when a protected route is reached with no
// resolved identity; distinct from a role denial
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound covers token subjects whose account no longer exists
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrSelfDeletion guards admins from deleting their own account
var ErrSelfDeletion = errors.New("cannot delete your own account", errors.CategoryAuthz).
	WithTextCode(TextCodeSelfDeletion).
	WithCode(errors.CodeForbidden)

// ErrMismatchedHashAndPassword is the internal bcrypt comparison failure;
// the login boundary converts it to ErrInvalidCredentials before it can
// reach a caller
var ErrMismatchedHashAndPassword = errors.New("password does not match stored hash", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty plaintext before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// HTTPStatus resolves the response status for an error. Rich errors map
// by category; anything untyped is a 500. Conflicts report 400, not 409,
// per the API contract.
func HTTPStatus(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryConflict:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsTokenExpiredError will check for expired tokens, including the
// jwt library's own error strings before they get wrapped
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for unparseable or badly signed tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
