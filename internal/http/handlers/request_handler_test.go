package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/services"
)

//
// Stub services: each field overrides one operation; unset operations fail the
// test if called.
//

type stubRequestSvc struct {
	create   func(ctx context.Context, clientID, serviceTypeID string) (*domain.ServiceRequest, error)
	get      func(ctx context.Context, principalID, requestID string) (*domain.ServiceRequest, error)
	quote    func(ctx context.Context, providerID, requestID string, price float64) (*domain.ServiceRequest, error)
	start    func(ctx context.Context, clientID, requestID, externalRef string) (*domain.ServiceRequest, error)
	complete func(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, *domain.TaskConfirmation, error)
	cancel   func(ctx context.Context, clientID, requestID string) (*domain.ServiceRequest, error)
}

func (s *stubRequestSvc) Create(ctx context.Context, clientID, serviceTypeID string) (*domain.ServiceRequest, error) {
	return s.create(ctx, clientID, serviceTypeID)
}
func (s *stubRequestSvc) Get(ctx context.Context, principalID, requestID string) (*domain.ServiceRequest, error) {
	return s.get(ctx, principalID, requestID)
}
func (s *stubRequestSvc) Quote(ctx context.Context, providerID, requestID string, price float64) (*domain.ServiceRequest, error) {
	return s.quote(ctx, providerID, requestID, price)
}
func (s *stubRequestSvc) Start(ctx context.Context, clientID, requestID, externalRef string) (*domain.ServiceRequest, error) {
	return s.start(ctx, clientID, requestID, externalRef)
}
func (s *stubRequestSvc) Complete(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, *domain.TaskConfirmation, error) {
	return s.complete(ctx, providerID, requestID)
}
func (s *stubRequestSvc) Cancel(ctx context.Context, clientID, requestID string) (*domain.ServiceRequest, error) {
	return s.cancel(ctx, clientID, requestID)
}

type stubConfirmSvc struct {
	confirm func(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error)
}

func (s *stubConfirmSvc) Confirm(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error) {
	return s.confirm(ctx, actorID, confirmationID)
}

type stubSweepSvc struct {
	run func(ctx context.Context) (services.SweepResult, error)
}

func (s *stubSweepSvc) Run(ctx context.Context) (services.SweepResult, error) { return s.run(ctx) }

type stubQuerySvc struct {
	pending func(ctx context.Context, principalID, providerID string) ([]domain.TaskConfirmation, error)
	escrow  func(ctx context.Context, principalID, providerID string) ([]services.EscrowPaymentView, error)
	summary func(ctx context.Context, principalID, providerID string) (*services.EscrowSummary, error)
}

func (s *stubQuerySvc) PendingConfirmations(ctx context.Context, principalID, providerID string) ([]domain.TaskConfirmation, error) {
	return s.pending(ctx, principalID, providerID)
}
func (s *stubQuerySvc) EscrowPayments(ctx context.Context, principalID, providerID string) ([]services.EscrowPaymentView, error) {
	return s.escrow(ctx, principalID, providerID)
}
func (s *stubQuerySvc) Summary(ctx context.Context, principalID, providerID string) (*services.EscrowSummary, error) {
	return s.summary(ctx, principalID, providerID)
}

// newHandlerRouter mounts the handlers behind a fake auth layer that trusts
// the X-User-ID header, mirroring the demo mode of the real stack.
func newHandlerRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set("principalID", id)
		}
		c.Next()
	})
	r.POST("/requests", h.CreateRequest)
	r.GET("/requests/:id", h.GetRequest)
	r.POST("/requests/:id/quote", h.QuoteRequest)
	r.POST("/requests/:id/start", h.StartRequest)
	r.POST("/requests/:id/complete", h.CompleteRequest)
	r.POST("/requests/:id/cancel", h.CancelRequest)
	r.POST("/confirmations/:id/confirm", h.Confirm)
	r.GET("/providers/:id/confirmations/pending", h.ListPendingConfirmations)
	r.GET("/providers/:id/payments/escrow", h.ListEscrowPayments)
	r.POST("/admin/sweep", h.RunSweep)
	return r
}

func serve(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRequest_BadBody(t *testing.T) {
	h := New(&stubRequestSvc{}, nil, nil, nil)
	r := newHandlerRouter(h)

	// Malformed JSON.
	if w := serve(r, http.MethodPost, "/requests", "u1", "{nope"); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: expected 400, got %d", w.Code)
	}
	// Missing service_type_id fails binding.
	if w := serve(r, http.MethodPost, "/requests", "u1", "{}"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing field: expected 400, got %d", w.Code)
	}
}

func TestCreateRequest_Success(t *testing.T) {
	h := New(&stubRequestSvc{
		create: func(ctx context.Context, clientID, serviceTypeID string) (*domain.ServiceRequest, error) {
			if clientID != "u1" || serviceTypeID != "cleaning" {
				t.Fatalf("unexpected args: %q %q", clientID, serviceTypeID)
			}
			return &domain.ServiceRequest{ID: "r1", ClientID: clientID, ServiceTypeID: serviceTypeID, Status: domain.RequestPending}, nil
		},
	}, nil, nil, nil)
	r := newHandlerRouter(h)

	w := serve(r, http.MethodPost, "/requests", "u1", `{"service_type_id":" cleaning "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out domain.ServiceRequest
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.ID != "r1" {
		t.Fatalf("unexpected body: %s (%v)", w.Body.String(), err)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", services.ErrRequestNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{"invalid transition", services.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
		{"invalid price", services.ErrInvalidPrice, http.StatusBadRequest, ErrCodeBadRequest},
		{"price not set", services.ErrPriceNotSet, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&stubRequestSvc{
				get: func(ctx context.Context, principalID, requestID string) (*domain.ServiceRequest, error) {
					return nil, tc.err
				},
			}, nil, nil, nil)
			r := newHandlerRouter(h)

			w := serve(r, http.MethodGet, "/requests/r1", "u1", "")
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, body.Code)
			}
		})
	}
}

func TestConfirm_Success(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := New(nil, &stubConfirmSvc{
		confirm: func(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error) {
			return &domain.TaskConfirmation{ID: confirmationID, Confirmed: true, ConfirmedAt: &now}, nil
		},
	}, nil, nil)
	r := newHandlerRouter(h)

	w := serve(r, http.MethodPost, "/confirmations/c1/confirm", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out domain.TaskConfirmation
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || !out.Confirmed {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestConfirm_AlreadyResolved_ReturnsFinalState(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := New(nil, &stubConfirmSvc{
		confirm: func(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error) {
			// Sweep won the race: record is auto-released.
			return &domain.TaskConfirmation{ID: confirmationID, AutoReleased: true, AutoReleasedAt: &now},
				services.ErrAlreadyResolved
		},
	}, nil, nil)
	r := newHandlerRouter(h)

	w := serve(r, http.MethodPost, "/confirmations/c1/confirm", "u1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var out AlreadyResolvedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != ErrCodeAlreadyResolved {
		t.Fatalf("expected already_resolved code, got %q", out.Code)
	}
	if out.Confirmation == nil || !out.Confirmation.AutoReleased {
		t.Fatalf("expected final record in body, got %+v", out.Confirmation)
	}
}

func TestRunSweep(t *testing.T) {
	h := New(nil, nil, &stubSweepSvc{
		run: func(ctx context.Context) (services.SweepResult, error) {
			return services.SweepResult{Processed: 3, Timestamp: time.Now()}, nil
		},
	}, nil)
	r := newHandlerRouter(h)

	w := serve(r, http.MethodPost, "/admin/sweep", "ops", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out services.SweepResult
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Processed != 3 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRunSweep_Failure(t *testing.T) {
	h := New(nil, nil, &stubSweepSvc{
		run: func(ctx context.Context) (services.SweepResult, error) {
			return services.SweepResult{}, errors.New("db locked")
		},
	}, nil)
	r := newHandlerRouter(h)

	w := serve(r, http.MethodPost, "/admin/sweep", "ops", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != ErrCodeSweepFailed {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestListPendingConfirmations_Limit(t *testing.T) {
	h := New(nil, nil, nil, &stubQuerySvc{
		pending: func(ctx context.Context, principalID, providerID string) ([]domain.TaskConfirmation, error) {
			return []domain.TaskConfirmation{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, nil
		},
	})
	r := newHandlerRouter(h)

	w := serve(r, http.MethodGet, "/providers/p1/confirmations/pending?limit=2", "p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out PendingConfirmationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Confirmations) != 2 {
		t.Fatalf("expected limit to cap at 2, got %d", len(out.Confirmations))
	}

	// Garbage limit values fall back to "no cap".
	w2 := serve(r, http.MethodGet, "/providers/p1/confirmations/pending?limit=zzz", "p1", "")
	var out2 PendingConfirmationsResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &out2); err != nil || len(out2.Confirmations) != 3 {
		t.Fatalf("expected all rows on bad limit, got %s", w2.Body.String())
	}
}
