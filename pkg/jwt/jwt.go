package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims standards JWT plus les champs propres au moteur.
// ActorID identifie l'opérateur ou le job (fourni par le fournisseur
// d'identité amont) ; Desk est informatif pour les logs d'audit.
type Claims struct {
	jwt.RegisteredClaims
	ActorID string `json:"actor_id"`
	Desk    string `json:"desk"` // "réception" | "expédition" | "retours" | "système"
}

// Generate génère un jeton signé portant actorID et desk.
func Generate(secret, actorID, desk, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vide")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		ActorID: actorID,
		Desk:    desk,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valide le jeton et retourne actorID et desk.
// Erreur si le jeton est invalide, expiré ou mal signé.
func Parse(secret, tokenString string) (actorID, desk string, err error) {
	if secret == "" {
		return "", "", fmt.Errorf("jwt: secret vide")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("claims invalides")
	}
	return claims.ActorID, claims.Desk, nil
}
