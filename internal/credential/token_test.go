package credential

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func generatePrivateKey(t *testing.T) string {
	_, pemKey := generateKeyPair(t)
	return pemKey
}

func decodeSegment(t *testing.T, segment string, v any) {
	t.Helper()

	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func newTestExchanger(t *testing.T, tokenURL string, privateKey string) *TokenExchanger {
	t.Helper()

	return NewTokenExchanger(TokenExchangerParams{
		Config: Config{
			TokenURL: tokenURL,
			Timeout:  5 * time.Second,
		},
		Credential: ServiceCredential{
			ClientEmail: "relay@project.iam.gserviceaccount.com",
			PrivateKey:  privateKey,
			ProjectID:   "project",
		},
		Logger: zap.NewNop(),
	})
}

func TestNewTokenExchanger(t *testing.T) {
	exchanger := newTestExchanger(t, "https://oauth2.example.com/token", testKeyBody)

	assert.NotNil(t, exchanger)
	assert.Equal(t, "relay@project.iam.gserviceaccount.com", exchanger.jwtConfig.Email)
	assert.Equal(t, []string{FirebaseMessagingScope}, exchanger.jwtConfig.Scopes)
	assert.Equal(t, "https://oauth2.example.com/token", exchanger.jwtConfig.TokenURL)
	assert.Equal(t, 5*time.Second, exchanger.httpclient.Timeout)
}

func TestTokenExchanger_AccessToken_Success(t *testing.T) {
	var calls atomic.Int32
	assertions := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		if assert.NoError(t, r.ParseForm()) {
			assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.PostForm.Get("grant_type"))
			assertions <- r.PostForm.Get("assertion")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"ya29.token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	key, pemKey := generateKeyPair(t)
	exchanger := newTestExchanger(t, server.URL, pemKey)

	token, err := exchanger.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", token)

	// no caching across calls
	_, err = exchanger.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	parts := strings.Split(<-assertions, ".")
	require.Len(t, parts, 3)

	var header struct {
		Alg string `json:"alg"`
		Typ string `json:"typ"`
	}
	decodeSegment(t, parts[0], &header)
	assert.Equal(t, "RS256", header.Alg)
	assert.Equal(t, "JWT", header.Typ)

	var claims struct {
		Iss   string `json:"iss"`
		Scope string `json:"scope"`
		Aud   string `json:"aud"`
		Iat   int64  `json:"iat"`
		Exp   int64  `json:"exp"`
	}
	decodeSegment(t, parts[1], &claims)
	assert.Equal(t, "relay@project.iam.gserviceaccount.com", claims.Iss)
	assert.Equal(t, FirebaseMessagingScope, claims.Scope)
	assert.Equal(t, server.URL, claims.Aud)
	assert.Greater(t, claims.Exp, claims.Iat)

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], signature))
}

func TestTokenExchanger_AccessToken_Failures(t *testing.T) {
	tests := []struct {
		name       string
		privateKey func(t *testing.T) string
		handler    http.HandlerFunc
	}{
		{
			name:       "token endpoint rejects assertion",
			privateKey: generatePrivateKey,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`))
			},
		},
		{
			name:       "token endpoint returns no access token",
			privateKey: generatePrivateKey,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"token_type":"Bearer"}`))
			},
		},
		{
			name: "private key cannot be parsed",
			privateKey: func(t *testing.T) string {
				return testKeyBody
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("token endpoint must not be called with an unusable key")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			exchanger := newTestExchanger(t, server.URL, tt.privateKey(t))

			token, err := exchanger.AccessToken(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTokenExchange)
			assert.Empty(t, token)
		})
	}
}

func TestTokenExchanger_AccessToken_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	exchanger := newTestExchanger(t, url, generatePrivateKey(t))

	_, err := exchanger.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrTokenExchange)
}
