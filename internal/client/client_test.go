package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
)

func respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func respondErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func TestClientDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/track/trk-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		respond(w, http.StatusOK, OrderView{Order: Order{ID: 7, TrackingID: "trk-1", Status: "PROCESSING"}})
	}))
	defer srv.Close()

	c := New(srv.URL, apt.NewNoopLogger())
	view, err := c.OrderByTrackingID(context.Background(), "trk-1")
	if err != nil {
		t.Fatalf("OrderByTrackingID() error = %v", err)
	}
	if view.ID != 7 || view.Status != "PROCESSING" {
		t.Errorf("decoded view = %+v", view)
	}
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		respond(w, http.StatusOK, []*OrderItem{})
	}))
	defer srv.Close()

	c := New(srv.URL, apt.NewNoopLogger())
	c.SetToken("tok123")

	if _, err := c.KitchenQueue(context.Background()); err != nil {
		t.Fatalf("KitchenQueue() error = %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		sentinel error
	}{
		{name: "notFound", code: http.StatusNotFound, sentinel: ErrNotFound},
		{name: "conflict", code: http.StatusConflict, sentinel: ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				respondErr(w, tt.code, "nope")
			}))
			defer srv.Close()

			c := New(srv.URL, apt.NewNoopLogger())
			_, err := c.GetOrder(context.Background(), 1)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestClientActiveOrderNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, apt.NewNoopLogger())
	view, err := c.ActiveOrderForTable(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActiveOrderForTable() error = %v", err)
	}
	if view != nil {
		t.Errorf("no open tab should return nil view, got %+v", view)
	}
}

func TestClientLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Username != "staff" || req.Password != "pw" {
				respondErr(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			respond(w, http.StatusOK, LoginResponse{Token: "tok456", Username: "staff", Role: "staff"})
		case "/service/tasks":
			if r.Header.Get("Authorization") != "Bearer tok456" {
				respondErr(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			respond(w, http.StatusOK, ServiceTasks{})
		default:
			respondErr(w, http.StatusNotFound, "not found")
		}
	}))
	defer srv.Close()

	c := New(srv.URL, apt.NewNoopLogger())
	if _, err := c.Login(context.Background(), "staff", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Subsequent calls reuse the stored token.
	if _, err := c.ServiceTasks(context.Background()); err != nil {
		t.Fatalf("ServiceTasks() after login error = %v", err)
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondErr(w, http.StatusInternalServerError, "boom")
	}))
	defer srv.Close()

	c := New(srv.URL, apt.NewNoopLogger())
	_, err := c.Menu(context.Background())
	if err == nil {
		t.Fatal("Menu() should surface server errors")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		t.Errorf("500 must not map to a sentinel, got %v", err)
	}
}
