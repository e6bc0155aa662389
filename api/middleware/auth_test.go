package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stashbook-finance/stashbook/config"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecretKeyAuthMiddleware(), UserContextMiddleware())
	r.GET("/", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/accounts", func(c *gin.Context) {
		c.JSON(200, gin.H{"user": c.GetString(UserIDKey)})
	})
	return r
}

func TestSecretKeyAuth(t *testing.T) {
	cnf := &config.Configuration{}
	cnf.Server.SecretKey = "s3cret"
	config.MockConfig(cnf)
	router := newAuthRouter()

	// Missing key
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/accounts", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong key
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/accounts", nil)
	req.Header.Set(KeyHeader, "wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Correct key plus user header
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/accounts", nil)
	req.Header.Set(KeyHeader, "s3cret")
	req.Header.Set(UserHeader, "usr_1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usr_1")
}

func TestSecretKeyAuth_RootPathOpen(t *testing.T) {
	cnf := &config.Configuration{}
	cnf.Server.SecretKey = "s3cret"
	config.MockConfig(cnf)
	router := newAuthRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserContext_MissingHeader(t *testing.T) {
	config.MockConfig(&config.Configuration{})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(UserContextMiddleware())
	router.GET("/accounts", func(c *gin.Context) { c.JSON(200, gin.H{}) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/accounts", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
