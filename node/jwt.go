package node

import (
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/renameio/v2"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/log"
)

// jwtExpiryTimeout is the maximum age, in either direction, of the iat
// claim on an accepted token.
const jwtExpiryTimeout = 60 * time.Second

type jwtHandler struct {
	keyFunc jwt.Keyfunc
	next    http.Handler
}

// newJWTHandler creates an http.Handler that verifies a HS256 bearer
// token against secret before passing the request on.
func newJWTHandler(secret []byte, next http.Handler) http.Handler {
	return &jwtHandler{
		keyFunc: func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		next: next,
	}
}

func (handler *jwtHandler) ServeHTTP(out http.ResponseWriter, r *http.Request) {
	var (
		strToken string
		claims   jwt.RegisteredClaims
	)
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		strToken = strings.TrimPrefix(auth, "Bearer ")
	}
	if len(strToken) == 0 {
		http.Error(out, "missing token", http.StatusUnauthorized)
		return
	}
	// Only HS256 is accepted, and claim validation is done manually so
	// the iat check can allow for a small clock drift.
	token, err := jwt.ParseWithClaims(strToken, &claims, handler.keyFunc,
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation())

	switch {
	case err != nil:
		http.Error(out, err.Error(), http.StatusUnauthorized)
	case !token.Valid:
		http.Error(out, "invalid token", http.StatusUnauthorized)
	case !claims.VerifyExpiresAt(time.Now(), false): // optional claim
		http.Error(out, "token is expired", http.StatusUnauthorized)
	case claims.IssuedAt == nil:
		http.Error(out, "missing issued-at", http.StatusUnauthorized)
	case time.Since(claims.IssuedAt.Time) > jwtExpiryTimeout:
		http.Error(out, "stale token", http.StatusUnauthorized)
	case time.Until(claims.IssuedAt.Time) > jwtExpiryTimeout:
		http.Error(out, "future token", http.StatusUnauthorized)
	default:
		handler.next.ServeHTTP(out, r)
	}
}

// ObtainJWTSecret loads the HS256 secret from path, generating and
// persisting a fresh one if the file does not exist yet.
func ObtainJWTSecret(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		secret := common.FromHex(strings.TrimSpace(string(data)))
		if len(secret) == 32 {
			log.Info("Loaded JWT secret", "path", path)
			return secret, nil
		}
		log.Error("Invalid JWT secret", "path", path, "length", len(secret))
		return nil, errors.New("invalid JWT secret")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := renameio.WriteFile(path, []byte(common.ToHex(secret)), 0600); err != nil {
		return nil, err
	}
	log.Info("Generated JWT secret", "path", path)
	return secret, nil
}
