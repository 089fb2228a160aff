package appointment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/handler"
	appointmenthandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/appointment"
	"github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("clinic_test", "appointment_handler")

type testServer struct {
	engine  *gin.Engine
	patient *model.Patient
	doctor  *model.Doctor
}

// identityInjector stands in for the auth middleware.
func identityInjector(ident **model.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if *ident != nil {
			c.Set("identity", *ident)
		}
		c.Next()
	}
}

func newTestServer(t *testing.T, ident **model.Identity) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler.RegisterValidators()

	aptRepo := memory.NewAppointmentRepository()
	patientRepo := memory.NewPatientRepository()
	doctorRepo := memory.NewDoctorRepository()
	scheduleSvc := schedule.NewService(aptRepo, doctorRepo, schedule.DefaultSlotPolicy)

	patient := &model.Patient{Subject: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, patientRepo.Create(context.Background(), patient))
	doctor := &model.Doctor{Subject: uuid.New(), Name: "Dr. Okafor", Email: "okafor@clinic.local", Status: model.DoctorStatusActive}
	require.NoError(t, doctorRepo.Create(context.Background(), doctor))

	svc := appointment.NewService(
		aptRepo, patientRepo, doctorRepo, memory.NewOutboxRepository(),
		scheduleSvc, nil, testMetrics, logger.NewLogger(nil),
	)

	engine := gin.New()
	group := engine.Group("/api/v1")
	group.Use(identityInjector(ident))
	appointmenthandler.NewHandler(svc, scheduleSvc).RegisterRoutes(group)

	return &testServer{engine: engine, patient: patient, doctor: doctor}
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestBookEndpoint(t *testing.T) {
	var ident *model.Identity
	srv := newTestServer(t, &ident)
	ident = &model.Identity{Subject: srv.patient.Subject, Role: model.RoleTypePatient}

	slot := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	w := doJSON(t, srv.engine, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id": srv.doctor.ID,
		"date":      slot.Format(time.RFC3339),
		"reason":    "checkup",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string            `json:"status"`
		Data   model.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.AppointmentStatusPending, resp.Data.Status)
}

func TestBookEndpointConflictIs409(t *testing.T) {
	var ident *model.Identity
	srv := newTestServer(t, &ident)
	ident = &model.Identity{Subject: srv.patient.Subject, Role: model.RoleTypePatient}

	slot := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	body := map[string]interface{}{
		"doctor_id": srv.doctor.ID,
		"date":      slot.Format(time.RFC3339),
		"reason":    "checkup",
	}

	w := doJSON(t, srv.engine, http.MethodPost, "/api/v1/appointments", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv.engine, http.MethodPost, "/api/v1/appointments", body)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var resp struct {
		Status  string `json:"status"`
		Details struct {
			DoctorName string `json:"doctor_name"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Dr. Okafor", resp.Details.DoctorName)
}

func TestBookEndpointUnauthenticated(t *testing.T) {
	var ident *model.Identity
	srv := newTestServer(t, &ident)

	slot := time.Now().Add(72 * time.Hour).Truncate(time.Hour)
	w := doJSON(t, srv.engine, http.MethodPost, "/api/v1/appointments", map[string]interface{}{
		"doctor_id": srv.doctor.ID,
		"date":      slot.Format(time.RFC3339),
		"reason":    "checkup",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestSlotsEndpoint(t *testing.T) {
	var ident *model.Identity
	srv := newTestServer(t, &ident)
	ident = &model.Identity{Subject: srv.patient.Subject, Role: model.RoleTypePatient}

	day := time.Now().Add(72 * time.Hour).Format("2006-01-02")
	w := doJSON(t, srv.engine, http.MethodGet,
		fmt.Sprintf("/api/v1/appointments/slots?doctor_id=%s&date=%s", srv.doctor.ID, day), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data []time.Time `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 16)
}

func TestSlotsEndpointRejectsBadInput(t *testing.T) {
	var ident *model.Identity
	srv := newTestServer(t, &ident)

	w := doJSON(t, srv.engine, http.MethodGet, "/api/v1/appointments/slots?doctor_id=nope&date=2026-09-14", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv.engine, http.MethodGet,
		fmt.Sprintf("/api/v1/appointments/slots?doctor_id=%s&date=tomorrow", srv.doctor.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
