package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

var ErrTokenExchange = errors.New("failed to exchange service account for access token")

//go:generate mockgen -package mockcredential -destination ./mock/mocktoken.go . TokenProvider
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

var _ TokenProvider = (*TokenExchanger)(nil)

// TokenExchanger signs a JWT assertion with the service account key and trades
// it for a bearer token. Tokens are never cached, every call hits the token
// endpoint.
type TokenExchanger struct {
	jwtConfig  *jwt.Config
	httpclient *http.Client
	logger     *zap.Logger
}

type TokenExchangerParams struct {
	fx.In

	Config     Config
	Credential ServiceCredential
	Logger     *zap.Logger
}

func NewTokenExchanger(params TokenExchangerParams) *TokenExchanger {
	return &TokenExchanger{
		jwtConfig: &jwt.Config{
			Email:      params.Credential.ClientEmail,
			PrivateKey: []byte(params.Credential.PrivateKey),
			Scopes:     []string{FirebaseMessagingScope},
			TokenURL:   params.Config.TokenURL,
		},
		httpclient: &http.Client{
			Timeout: params.Config.Timeout,
		},
		logger: params.Logger,
	}
}

func (e *TokenExchanger) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpclient)

	token, err := e.jwtConfig.TokenSource(ctx).Token()
	if err != nil {
		e.logger.Error("token exchange failed",
			zap.String("client_email", e.jwtConfig.Email),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	e.logger.Debug("access token issued", zap.Time("expiry", token.Expiry))
	return token.AccessToken, nil
}
