package auth

import (
	"net/http"
	"strings"
	"time"

	"invoicesweep/internal/adapters/inbound/http/controllers"
	"invoicesweep/internal/adapters/inbound/http/principal"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Authenticator verifies HS256 bearer tokens whose subject is the principal
// address. The controller identity can never be claimed by a token.
type Authenticator struct {
	secret     []byte
	controller common.Address
	logger     logrus.FieldLogger
}

func NewAuthenticator(secret string, controller common.Address, logger logrus.FieldLogger) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		controller: controller,
		logger:     logger,
	}
}

// Require rejects requests without a valid token.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, appErr := a.authenticate(r)
		if appErr != nil {
			a.logger.Warnf("auth error path=%s method=%s code=%s message=%s", r.URL.Path, r.Method, appErr.Code, appErr.Message)
			controllers.WriteAppError(w, appErr)
			return
		}

		next(w, r.WithContext(principal.With(r.Context(), address)))
	}
}

func (a *Authenticator) authenticate(r *http.Request) (string, *apperrors.AppError) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", apperrors.NewUnauthorized(
			"principal_missing",
			"authorization bearer token is required",
			nil,
		)
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return "", invalidToken("authorization header must use the Bearer scheme")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(raw),
		claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return "", invalidToken(err.Error())
	}

	subject, appErr := valueobjects.ParseNonZeroAddress("sub", claims.Subject)
	if appErr != nil {
		return "", invalidToken("token subject must be an address")
	}
	if subject == a.controller {
		return "", invalidToken("token subject must not be the controller")
	}

	return valueobjects.FormatAddress(subject), nil
}

// IssueToken signs a principal token; used by sweepctl and tests.
func IssueToken(secret string, subject common.Address, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   valueobjects.FormatAddress(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func invalidToken(reason string) *apperrors.AppError {
	return apperrors.NewUnauthorized(
		"principal_token_invalid",
		"authorization token is invalid",
		map[string]any{"reason": reason},
	)
}
