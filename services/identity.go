package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

const RoleAdmin = "admin"

// Identity is the signed-in caller, passed explicitly into ledger operations.
type Identity struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// AdminPolicy decides who may use the admin routes: anyone with the admin
// role, or anyone whose email is on the configured list.
type AdminPolicy struct {
	emails map[string]struct{}
}

func NewAdminPolicy(emails []string) *AdminPolicy {
	p := &AdminPolicy{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			p.emails[e] = struct{}{}
		}
	}
	return p
}

func (p *AdminPolicy) IsAdmin(id Identity) bool {
	if id.HasRole(RoleAdmin) {
		return true
	}
	if id.Email == "" {
		return false
	}
	_, ok := p.emails[strings.ToLower(id.Email)]
	return ok
}

// FirebaseVerifier checks Firebase ID tokens with the Admin SDK.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, serviceAccountJSON string) (*FirebaseVerifier, error) {
	if serviceAccountJSON == "" {
		return nil, errors.New("FIREBASE_SERVICE_ACCOUNT not set")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

// identityFromClaims reads email plus either a "roles" list or an "admin"
// boolean custom claim.
func identityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UserID: uid}
	id.Email, _ = claims["email"].(string)

	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok && s != "" {
				id.Roles = append(id.Roles, s)
			}
		}
	}
	if isAdmin, _ := claims["admin"].(bool); isAdmin && !id.HasRole(RoleAdmin) {
		id.Roles = append(id.Roles, RoleAdmin)
	}
	return id
}
