package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Errores de validación de sesión. El handler los colapsa en un 401
// uniforme: al cliente no se le dice cuál chequeo falló.
var (
	// ErrExpiredCredential indica firma válida pero sesión vencida.
	ErrExpiredCredential = errors.New("session expired")

	// ErrInvalidCredential indica firma inválida, claims malformadas o issuer ajeno.
	ErrInvalidCredential = errors.New("session invalid")
)

// SessionClaims son las claims de identidad de una sesión validada.
type SessionClaims struct {
	UserID    string
	GitHubID  int64
	Username  string
	Email     string
	ExpiresAt time.Time
}

// ParseSession valida firma (HS256), issuer y expiración.
// La expiración es estricta: sin tolerancia, una credencial presentada
// después de su exp se rechaza siempre, aunque la firma sea válida.
func (i *Issuer) ParseSession(token string) (*SessionClaims, error) {
	tok, err := jwtv5.Parse(token,
		func(t *jwtv5.Token) (any, error) { return i.Secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}
	if !tok.Valid {
		return nil, ErrInvalidCredential
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidCredential
	}

	sc := &SessionClaims{
		UserID:   getString(mc, "sub"),
		Username: getString(mc, "username"),
		Email:    getString(mc, "email"),
	}
	if gid, ok := mc["gid"].(float64); ok {
		sc.GitHubID = int64(gid)
	}
	if expf, ok := mc["exp"].(float64); ok {
		sc.ExpiresAt = time.Unix(int64(expf), 0).UTC()
	}
	if sc.UserID == "" {
		return nil, ErrInvalidCredential
	}
	return sc, nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
