package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oszuidwest/zwfm-crudread/internal/config"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(&Config{
		Clients: []config.Client{
			{Name: "ui", KeyHash: mustHash(t, "ui-secret"), Role: "editor"},
			{Name: "ops", KeyHash: mustHash(t, "ops-secret"), Role: "admin"},
		},
		Policies: []config.Policy{
			{Role: "editor", Resource: "contacts", Action: "read"},
			{Role: "admin", Resource: "*", Action: "read"},
		},
	})
	require.NoError(t, err)
	return svc
}

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/read/:resource", svc.Middleware(), svc.RequirePermission(":resource", ActionRead), func(c *gin.Context) {
		name, _ := ClientName(c)
		c.String(http.StatusOK, name)
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	client, err := svc.Authenticate("ui:ui-secret")
	require.NoError(t, err)
	assert.Equal(t, ClientContext{Name: "ui", Role: "editor"}, client)

	for _, credential := range []string{"ui:wrong", "ghost:ui-secret", "ui", ":ui-secret", "ui:", ""} {
		_, err := svc.Authenticate(credential)
		assert.Error(t, err, credential)
	}
}

func TestMiddlewareAndPermissions(t *testing.T) {
	r := newRouter(newTestService(t))

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"editor reads granted resource", "/read/contacts", "Bearer ui:ui-secret", 200, "ui"},
		{"editor denied other resource", "/read/invoices", "Bearer ui:ui-secret", 403, ""},
		{"admin wildcard", "/read/invoices", "Bearer ops:ops-secret", 200, "ops"},
		{"missing header", "/read/contacts", "", 401, ""},
		{"wrong scheme", "/read/contacts", "Basic dWk6dWktc2VjcmV0", 401, ""},
		{"bad secret", "/read/contacts", "Bearer ui:nope", 401, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
			if tt.status == 401 {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestDisabledWithoutClients(t *testing.T) {
	svc, err := NewService(&Config{})
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/read/contacts", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireClients(t *testing.T) {
	_, err := NewService(&Config{RequireClients: true})
	assert.ErrorIs(t, err, ErrNoClients)
}

func TestAllowed(t *testing.T) {
	svc := newTestService(t)

	ok, err := svc.Allowed("editor", "contacts", ActionRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Allowed("viewer", "contacts", ActionRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecret(t *testing.T) {
	secret := GenerateSecret()
	assert.Len(t, secret, 26)
	assert.NotEqual(t, secret, GenerateSecret())

	hash, err := HashSecret(secret)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)))

	_, err = HashSecret("")
	assert.Error(t, err)
}
