package httpprov

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crewbase.org/internal/identity"
)

const testSecret = "idp-shared-secret"

func mintIDToken(t *testing.T, sub, email string) string {
	t.Helper()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   "crewbase-idp",
		"sub":   sub,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newStubProvider(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/identities", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Email {
		case "taken@example.com":
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "duplicate_account", Message: "email already in use"})
		default:
			_ = json.NewEncoder(w).Encode(sessionResponse{IDToken: mintIDToken(t, "prov-1", req.Email)})
		}
	})
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "invalid_credentials", Message: "the password is invalid"})
			return
		}
		_ = json.NewEncoder(w).Encode(sessionResponse{IDToken: mintIDToken(t, "prov-1", req.Email)})
	})
	mux.HandleFunc("/v1/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, testSecret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, client
}

func TestCreateIdentity(t *testing.T) {
	_, client := newStubProvider(t)

	id, err := client.CreateIdentity(context.Background(), "dana@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("CreateIdentity: %v", err)
	}
	if id.ID != "prov-1" || id.Email != "dana@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	token, err := client.SessionToken()
	if err != nil || token == "" {
		t.Fatalf("expected session token after signup, err=%v", err)
	}
}

func TestCreateIdentityDuplicate(t *testing.T) {
	_, client := newStubProvider(t)

	_, err := client.CreateIdentity(context.Background(), "taken@example.com", "correct-horse")
	if !identity.IsProviderCode(err, identity.ProviderDuplicateAccount) {
		t.Fatalf("expected duplicate account error, got %v", err)
	}
	if err.Error() != "email already in use" {
		t.Fatalf("provider message not passed through: %q", err.Error())
	}
}

func TestVerifyIdentityInvalidCredentials(t *testing.T) {
	_, client := newStubProvider(t)

	_, err := client.VerifyIdentity(context.Background(), "dana@example.com", "wrong")
	if !identity.IsProviderCode(err, identity.ProviderInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestVerifyIdentityPublishesTransition(t *testing.T) {
	_, client := newStubProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := client.SubscribeSessionState(ctx)
	if evt := <-ch; evt.Identity != nil {
		t.Fatalf("expected initial signed-out state, got %+v", evt.Identity)
	}

	if _, err := client.VerifyIdentity(context.Background(), "dana@example.com", "correct-horse"); err != nil {
		t.Fatalf("VerifyIdentity: %v", err)
	}
	evt := <-ch
	if evt.Identity == nil || evt.Identity.ID != "prov-1" {
		t.Fatalf("expected sign-in transition, got %+v", evt.Identity)
	}

	if err := client.DestroySession(context.Background()); err != nil {
		t.Fatalf("DestroySession: %v", err)
	}
	if evt := <-ch; evt.Identity != nil {
		t.Fatalf("expected sign-out transition, got %+v", evt.Identity)
	}
}

func TestDestroySessionIdempotent(t *testing.T) {
	_, client := newStubProvider(t)

	if err := client.DestroySession(context.Background()); err != nil {
		t.Fatalf("destroy without session: %v", err)
	}
	if _, err := client.VerifyIdentity(context.Background(), "dana@example.com", "correct-horse"); err != nil {
		t.Fatalf("VerifyIdentity: %v", err)
	}
	if err := client.DestroySession(context.Background()); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := client.DestroySession(context.Background()); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
}

func TestRejectsTamperedIDToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		badToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": "crewbase-idp",
			"sub": "prov-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("wrong-secret"))
		_ = json.NewEncoder(w).Encode(sessionResponse{IDToken: badToken})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, testSecret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.VerifyIdentity(context.Background(), "dana@example.com", "correct-horse")
	if !identity.IsProviderCode(err, identity.ProviderTransport) {
		t.Fatalf("expected transport error for bad signature, got %v", err)
	}
}
