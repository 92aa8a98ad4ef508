// Package jwt emite y valida las credenciales de sesión del servicio.
//
// La sesión es un JWT HS256 firmado con un secreto process-wide cargado al
// arranque. No hay refresh: al expirar, el cliente reinicia el flujo OAuth.
package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/quickdeploy/auth-svc/internal/domain/repository"
)

// Issuer firma sesiones con el secreto HMAC configurado.
type Issuer struct {
	Iss        string // claim "iss"
	Secret     []byte
	SessionTTL time.Duration // default 1h
}

func NewIssuer(iss string, secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{Iss: iss, Secret: secret, SessionTTL: ttl}
}

// IssueSession emite la credencial de sesión para un usuario reconciliado.
// Claims: sub (ID local), gid (ID de GitHub), username, email.
// La expiración queda fijada a la emisión; no es renovable.
func (i *Issuer) IssueSession(u *repository.User) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.SessionTTL)

	claims := jwtv5.MapClaims{
		"iss":      i.Iss,
		"sub":      u.ID,
		"gid":      u.GitHubID,
		"username": u.Username,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      exp.Unix(),
	}
	if u.Email != "" {
		claims["email"] = u.Email
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
