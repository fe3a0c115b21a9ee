package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carebook/internal/auth"
	"carebook/internal/domain"
	"carebook/internal/service/directory"
	"carebook/internal/service/prescriptions"
	"carebook/internal/service/scheduling"
)

type fakeScheduling struct {
	bookFn                 func(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error)
	rescheduleFn           func(ctx context.Context, appointmentID uuid.UUID, newStart time.Time, requesterID uuid.UUID) (domain.Appointment, error)
	cancelFn               func(ctx context.Context, appointmentID, requesterID uuid.UUID) error
	changeStatusFn         func(ctx context.Context, appointmentID uuid.UUID, newStatus domain.AppointmentStatus) (domain.Appointment, error)
	byRequesterFn          func(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error)
	byProviderFn           func(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error)
	byProviderAndDateFn    func(ctx context.Context, providerID uuid.UUID, date, requesterName string) ([]domain.Appointment, error)
	byRequesterAndStatusFn func(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error)
}

func (f *fakeScheduling) Book(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error) {
	if f.bookFn == nil {
		panic("Book not configured")
	}
	return f.bookFn(ctx, in)
}

func (f *fakeScheduling) Reschedule(ctx context.Context, appointmentID uuid.UUID, newStart time.Time, requesterID uuid.UUID) (domain.Appointment, error) {
	if f.rescheduleFn == nil {
		panic("Reschedule not configured")
	}
	return f.rescheduleFn(ctx, appointmentID, newStart, requesterID)
}

func (f *fakeScheduling) Cancel(ctx context.Context, appointmentID, requesterID uuid.UUID) error {
	if f.cancelFn == nil {
		panic("Cancel not configured")
	}
	return f.cancelFn(ctx, appointmentID, requesterID)
}

func (f *fakeScheduling) ChangeStatus(ctx context.Context, appointmentID uuid.UUID, newStatus domain.AppointmentStatus) (domain.Appointment, error) {
	if f.changeStatusFn == nil {
		panic("ChangeStatus not configured")
	}
	return f.changeStatusFn(ctx, appointmentID, newStatus)
}

func (f *fakeScheduling) ByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error) {
	if f.byRequesterFn == nil {
		panic("ByRequester not configured")
	}
	return f.byRequesterFn(ctx, requesterID)
}

func (f *fakeScheduling) ByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error) {
	if f.byProviderFn == nil {
		panic("ByProvider not configured")
	}
	return f.byProviderFn(ctx, providerID)
}

func (f *fakeScheduling) ByProviderAndDate(ctx context.Context, providerID uuid.UUID, date, requesterName string) ([]domain.Appointment, error) {
	if f.byProviderAndDateFn == nil {
		panic("ByProviderAndDate not configured")
	}
	return f.byProviderAndDateFn(ctx, providerID, date, requesterName)
}

func (f *fakeScheduling) ByRequesterAndStatus(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	if f.byRequesterAndStatusFn == nil {
		panic("ByRequesterAndStatus not configured")
	}
	return f.byRequesterAndStatusFn(ctx, requesterID, status)
}

type fakeDirectory struct {
	registerProviderFn  func(ctx context.Context, in directory.ProviderInput) (domain.Provider, error)
	getProviderFn       func(ctx context.Context, id uuid.UUID) (domain.Provider, error)
	listProvidersFn     func(ctx context.Context) ([]domain.Provider, error)
	removeProviderFn    func(ctx context.Context, id uuid.UUID) error
	registerRequesterFn func(ctx context.Context, in directory.RequesterInput) (domain.Requester, error)
	getRequesterFn      func(ctx context.Context, id uuid.UUID) (domain.Requester, error)
}

func (f *fakeDirectory) RegisterProvider(ctx context.Context, in directory.ProviderInput) (domain.Provider, error) {
	if f.registerProviderFn == nil {
		panic("RegisterProvider not configured")
	}
	return f.registerProviderFn(ctx, in)
}

func (f *fakeDirectory) GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error) {
	if f.getProviderFn == nil {
		panic("GetProvider not configured")
	}
	return f.getProviderFn(ctx, id)
}

func (f *fakeDirectory) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	if f.listProvidersFn == nil {
		panic("ListProviders not configured")
	}
	return f.listProvidersFn(ctx)
}

func (f *fakeDirectory) RemoveProvider(ctx context.Context, id uuid.UUID) error {
	if f.removeProviderFn == nil {
		panic("RemoveProvider not configured")
	}
	return f.removeProviderFn(ctx, id)
}

func (f *fakeDirectory) RegisterRequester(ctx context.Context, in directory.RequesterInput) (domain.Requester, error) {
	if f.registerRequesterFn == nil {
		panic("RegisterRequester not configured")
	}
	return f.registerRequesterFn(ctx, in)
}

func (f *fakeDirectory) GetRequester(ctx context.Context, id uuid.UUID) (domain.Requester, error) {
	if f.getRequesterFn == nil {
		panic("GetRequester not configured")
	}
	return f.getRequesterFn(ctx, id)
}

type fakePrescriptions struct {
	issueFn func(ctx context.Context, in prescriptions.IssueInput) (domain.Prescription, error)
	getFn   func(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error)
}

func (f *fakePrescriptions) Issue(ctx context.Context, in prescriptions.IssueInput) (domain.Prescription, error) {
	if f.issueFn == nil {
		panic("Issue not configured")
	}
	return f.issueFn(ctx, in)
}

func (f *fakePrescriptions) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Prescription, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, appointmentID)
}

type testServer struct {
	router  *gin.Engine
	manager *auth.Manager
}

func newTestServer(t *testing.T, sched *fakeScheduling, dir *fakeDirectory, rx *fakePrescriptions) *testServer {
	t.Helper()

	manager := auth.NewManager(auth.Config{
		Secret:   "test-secret",
		Issuer:   "carebook-test",
		TokenTTL: time.Hour,
	})

	router := NewRouter(RouterDeps{
		Appointments:  NewAppointmentsHandler(sched, nil, nil),
		Directory:     NewDirectoryHandler(dir, nil),
		Prescriptions: NewPrescriptionsHandler(rx, nil, nil),
		Validator:     manager,
	})

	return &testServer{router: router, manager: manager}
}

func (s *testServer) token(t *testing.T, subject uuid.UUID, role auth.Role) string {
	t.Helper()
	token, err := s.manager.Generate(subject, role)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v (body %s)", err, rec.Body.String())
	}
}

func TestBookHandler_Created(t *testing.T) {
	requester := uuid.New()
	provider := uuid.New()
	start := time.Date(2027, 3, 10, 10, 0, 0, 0, time.UTC)

	sched := &fakeScheduling{
		bookFn: func(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error) {
			if in.RequesterID != requester {
				t.Fatalf("requester = %s, want token subject %s", in.RequesterID, requester)
			}
			return domain.Appointment{
				ID:          uuid.New(),
				ProviderID:  in.ProviderID,
				RequesterID: in.RequesterID,
				StartTime:   in.StartTime,
				EndTime:     in.StartTime.Add(time.Hour),
				Status:      domain.StatusScheduled,
			}, nil
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})

	body := `{"provider_id":"` + provider.String() + `","start_time":"` + start.Format(time.RFC3339) + `"}`
	rec := s.do(t, http.MethodPost, "/api/v1/appointments", s.token(t, requester, auth.RoleRequester), body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var payload appointmentPayload
	decodeData(t, rec, &payload)
	if payload.Status != "scheduled" {
		t.Fatalf("status = %q, want scheduled", payload.Status)
	}
	if payload.EndTime != start.Add(time.Hour).Format(time.RFC3339) {
		t.Fatalf("end_time = %q, want one hour after start", payload.EndTime)
	}
}

func TestBookHandler_AuthFailures(t *testing.T) {
	s := newTestServer(t, &fakeScheduling{}, &fakeDirectory{}, &fakePrescriptions{})
	body := `{"provider_id":"` + uuid.NewString() + `","start_time":"2027-03-10T10:00:00Z"}`

	t.Run("no token", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/appointments", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/appointments", s.token(t, uuid.New(), auth.RoleProvider), body)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("admin passes the requester gate", func(t *testing.T) {
		sched := &fakeScheduling{
			bookFn: func(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error) {
				return domain.Appointment{ID: uuid.New(), ProviderID: in.ProviderID, RequesterID: in.RequesterID, Status: domain.StatusScheduled}, nil
			},
		}
		s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})
		rec := s.do(t, http.MethodPost, "/api/v1/appointments", s.token(t, uuid.New(), auth.RoleAdmin), body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
		}
	})
}

func TestBookHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"provider unavailable", scheduling.ErrProviderUnavailable, http.StatusConflict},
		{"unknown provider", scheduling.ErrInvalidProvider, http.StatusBadRequest},
		{"start in the past", scheduling.ErrStartNotFuture, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := &fakeScheduling{
				bookFn: func(ctx context.Context, in scheduling.BookInput) (domain.Appointment, error) {
					return domain.Appointment{}, tc.err
				},
			}
			s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})
			body := `{"provider_id":"` + uuid.NewString() + `","start_time":"2027-03-10T10:00:00Z"}`
			rec := s.do(t, http.MethodPost, "/api/v1/appointments", s.token(t, uuid.New(), auth.RoleRequester), body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestBookHandler_BadPayload(t *testing.T) {
	s := newTestServer(t, &fakeScheduling{}, &fakeDirectory{}, &fakePrescriptions{})
	token := s.token(t, uuid.New(), auth.RoleRequester)

	t.Run("bad provider id", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/appointments", token, `{"provider_id":"nope","start_time":"2027-03-10T10:00:00Z"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("bad start time", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/appointments", token, `{"provider_id":"`+uuid.NewString()+`","start_time":"tomorrow"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestRescheduleHandler_OwnershipError(t *testing.T) {
	sched := &fakeScheduling{
		rescheduleFn: func(ctx context.Context, appointmentID uuid.UUID, newStart time.Time, requesterID uuid.UUID) (domain.Appointment, error) {
			return domain.Appointment{}, scheduling.ErrUnauthorized
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})

	rec := s.do(t, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString(),
		s.token(t, uuid.New(), auth.RoleRequester),
		`{"start_time":"2027-03-10T14:00:00Z"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCancelHandler(t *testing.T) {
	apptID := uuid.New()
	requester := uuid.New()

	var cancelled bool
	sched := &fakeScheduling{
		cancelFn: func(ctx context.Context, id, who uuid.UUID) error {
			if id != apptID || who != requester {
				t.Fatalf("Cancel(%s, %s), want (%s, %s)", id, who, apptID, requester)
			}
			cancelled = true
			return nil
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})

	rec := s.do(t, http.MethodDelete, "/api/v1/appointments/"+apptID.String(), s.token(t, requester, auth.RoleRequester), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !cancelled {
		t.Fatalf("Cancel not called")
	}
}

func TestChangeStatusHandler(t *testing.T) {
	sched := &fakeScheduling{
		changeStatusFn: func(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
			return domain.Appointment{ID: id, Status: status}, nil
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})
	token := s.token(t, uuid.New(), auth.RoleProvider)
	path := "/api/v1/appointments/" + uuid.NewString() + "/status"

	t.Run("completed", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, path, token, `{"status":"completed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var payload appointmentPayload
		decodeData(t, rec, &payload)
		if payload.Status != "completed" {
			t.Fatalf("status = %q, want completed", payload.Status)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, path, token, `{"status":"archived"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("requester role rejected", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, path, s.token(t, uuid.New(), auth.RoleRequester), `{"status":"completed"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})
}

func TestListMineHandler_StatusFilter(t *testing.T) {
	requester := uuid.New()
	sched := &fakeScheduling{
		byRequesterFn: func(ctx context.Context, id uuid.UUID) ([]domain.Appointment, error) {
			return []domain.Appointment{{ID: uuid.New(), RequesterID: id, Status: domain.StatusScheduled}}, nil
		},
		byRequesterAndStatusFn: func(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error) {
			if status != domain.StatusCompleted {
				t.Fatalf("status = %q, want completed", status)
			}
			return nil, nil
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})
	token := s.token(t, requester, auth.RoleRequester)

	t.Run("unfiltered", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/appointments", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var payload []appointmentPayload
		decodeData(t, rec, &payload)
		if len(payload) != 1 {
			t.Fatalf("len = %d, want 1", len(payload))
		}
	})

	t.Run("filtered", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/appointments?status=completed", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("bad filter", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/appointments?status=archived", token, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestListForProviderHandler_DateAndNameFilter(t *testing.T) {
	provider := uuid.New()
	sched := &fakeScheduling{
		byProviderAndDateFn: func(ctx context.Context, id uuid.UUID, date, requesterName string) ([]domain.Appointment, error) {
			if id != provider || date != "2027-03-10" || requesterName != "smith" {
				t.Fatalf("ByProviderAndDate(%s, %q, %q)", id, date, requesterName)
			}
			return nil, nil
		},
	}
	s := newTestServer(t, sched, &fakeDirectory{}, &fakePrescriptions{})

	rec := s.do(t, http.MethodGet,
		"/api/v1/providers/"+provider.String()+"/appointments?date=2027-03-10&requester_name=smith",
		s.token(t, uuid.New(), auth.RoleProvider), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeScheduling{}, &fakeDirectory{}, &fakePrescriptions{})
	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
