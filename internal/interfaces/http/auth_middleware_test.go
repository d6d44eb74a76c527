package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/Bobyyy70/speede-flow-engine/internal/interfaces/http"
	pkgjwt "github.com/Bobyyy70/speede-flow-engine/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testActorID   = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "speede-flow-engine-test"
	testExpMin    = 60
)

// buildTestApp application Fiber minimale : AuthMiddleware puis un handler
// qui renvoie 200 avec les claims chargés.
func buildTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"actor_id": apphttp.GetActorID(c),
				"desk":     apphttp.GetDesk(c),
			})
		},
	)
	return app
}

// tokenForDesk génère un JWT pour le poste indiqué.
func tokenForDesk(t *testing.T, desk string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testActorID, desk, testIssuer, testExpMin)
	require.NoError(t, err, "un jeton JWT valide doit pouvoir être généré")
	return "Bearer " + tok
}

// doRequest lance GET /protected et retourne la réponse.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// Cas 1 : jeton valide → 200 avec les claims dans les locals.
func TestAuthMiddleware_JetonValide_ChargeLesClaims(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, tokenForDesk(t, "réception"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testActorID, body["actor_id"])
	assert.Equal(t, "réception", body["desk"])
}

// Cas 2 : pas d'en-tête Authorization → 401 MISSING_TOKEN.
func TestAuthMiddleware_SansEnTete_Retourne401(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN",
		"la réponse d'erreur doit porter le code MISSING_TOKEN")
}

// Cas 3 : jeton malformé → 401 INVALID_TOKEN.
func TestAuthMiddleware_JetonInvalide_Retourne401(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "Bearer jeton.invalide.ici")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

// Cas 4 : mauvais schéma d'en-tête → 401.
func TestAuthMiddleware_SchemaIncorrect_Retourne401(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "Basic abcdef")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests pkg/jwt — intégrité generate/parse
// ──────────────────────────────────────────────────────────────────────────────

func TestJWT_GenerateEtParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testActorID, "expédition", testIssuer, testExpMin)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	actorID, desk, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)

	assert.Equal(t, testActorID, actorID)
	assert.Equal(t, "expédition", desk)
}

func TestJWT_JetonExpire_RetourneErreur(t *testing.T) {
	// Expiration à -1 minute : déjà expiré.
	tok, err := pkgjwt.Generate(testJWTSecret, testActorID, "système", testIssuer, -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(testJWTSecret, tok)
	assert.Error(t, err, "un jeton expiré doit être rejeté")
}

func TestJWT_SecretIncorrect_RetourneErreur(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, testActorID, "retours", testIssuer, testExpMin)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("un-autre-secret-totalement-different", tok)
	assert.Error(t, err, "un secret incorrect doit invalider le jeton")
}
