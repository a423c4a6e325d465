package toolchannel

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// softwareStatementClaims are the fields of interest in the
// software_statement JWT a caller supplies; the token is issued by the
// tool server's own registration authority, so it is parsed WITHOUT
// signature verification here — this module only recovers the claims it
// needs to bootstrap a client-credentials grant, it does not trust the
// token for authorization decisions.
type softwareStatementClaims struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURL     string `json:"token_endpoint"`
	Scope        string `json:"scope"`
	jwt.RegisteredClaims
}

// AuthLayer bootstraps and refreshes the OAuth2 token used to authorize
// calls to the tool server, based on the claims embedded in a
// software_statement JWT.
type AuthLayer struct {
	source oauth2.TokenSource
}

// NewAuthLayer parses statement (without verifying its signature — the
// issuer is the tool server itself, not a party this client need
// authenticate) and builds a client-credentials token source from its
// embedded client_id/client_secret/token_endpoint claims.
func NewAuthLayer(statement string) (*AuthLayer, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims softwareStatementClaims
	if _, _, err := parser.ParseUnverified(statement, &claims); err != nil {
		return nil, fmt.Errorf("toolchannel: parse software_statement: %w", err)
	}
	if claims.ClientID == "" || claims.TokenURL == "" {
		return nil, fmt.Errorf("toolchannel: software_statement missing client_id or token_endpoint claim")
	}

	cfg := clientcredentials.Config{
		ClientID:     claims.ClientID,
		ClientSecret: claims.ClientSecret,
		TokenURL:     claims.TokenURL,
	}
	if claims.Scope != "" {
		cfg.Scopes = strings.Fields(claims.Scope)
	}

	return &AuthLayer{source: cfg.TokenSource(context.Background())}, nil
}

// Initialize performs the first token fetch eagerly so connection setup
// fails fast on bad credentials rather than on the first tool call.
func (a *AuthLayer) Initialize(ctx context.Context) error {
	_, err := a.Token(ctx)
	return err
}

// Token returns a valid bearer token, refreshing it if expired.
func (a *AuthLayer) Token(ctx context.Context) (string, error) {
	tok, err := a.source.Token()
	if err != nil {
		return "", fmt.Errorf("toolchannel: fetch access token: %w", err)
	}
	return tok.AccessToken, nil
}
