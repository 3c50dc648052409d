package gitsync

import (
	"context"
	"fmt"
	gohttp "net/http"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// CredentialSource supplies the authentication used for remote operations. It
// is consulted on every network call so that rotated secrets are picked up.
type CredentialSource interface {
	AuthMethod(ctx context.Context) (transport.AuthMethod, error)
}

// CredentialFunc adapts a function to a CredentialSource.
type CredentialFunc func(ctx context.Context) (transport.AuthMethod, error)

func (f CredentialFunc) AuthMethod(ctx context.Context) (transport.AuthMethod, error) {
	return f(ctx)
}

// BasicAuth is a username/password CredentialSource. With both fields empty
// no authentication is sent, which suits public remotes and local paths.
type BasicAuth struct {
	Username string
	Password string
}

func (b BasicAuth) AuthMethod(context.Context) (transport.AuthMethod, error) {
	if b.Username == "" && b.Password == "" {
		return nil, nil
	}

	return &basicAuth{Username: b.Username, Password: b.Password}, nil
}

func authMethod(ctx context.Context, creds CredentialSource) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}

	auth, err := creds.AuthMethod(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	return auth, nil
}

// basicAuth provides HTTP basic authentication whose String never reveals
// the password, so it is safe to log.
type basicAuth struct {
	Username string
	Password string
}

func (a *basicAuth) String() string {
	masked := "*******"
	if a.Password == "" {
		masked = "<empty>"
	}
	return fmt.Sprintf("%s - %s:%s", a.Name(), a.Username, masked)
}

func (*basicAuth) Name() string {
	return "http-basic-auth"
}

func (a *basicAuth) SetAuth(r *gohttp.Request) {
	r.SetBasicAuth(a.Username, a.Password)
}
