package patient_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/patient"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

func setup(t *testing.T) (*patient.Service, *memory.PatientRepository, *memory.DoctorRepository, *memory.MedicalRecordRepository) {
	t.Helper()
	patientRepo := memory.NewPatientRepository()
	doctorRepo := memory.NewDoctorRepository()
	recordRepo := memory.NewMedicalRecordRepository()
	svc := patient.NewService(patientRepo, recordRepo, doctorRepo, security.NewBcryptHasher(4))
	return svc, patientRepo, doctorRepo, recordRepo
}

func TestRegisterAndProfile(t *testing.T) {
	svc, _, _, _ := setup(t)

	p, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Ana Flores",
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.Subject)
	assert.NotEqual(t, "hunter2hunter2", p.PasswordHash)

	profile, err := svc.Profile(context.Background(), &model.Identity{Subject: p.Subject, Role: model.RoleTypePatient})
	require.NoError(t, err)
	assert.Equal(t, p.ID, profile.ID)

	_, err = svc.Profile(context.Background(), &model.Identity{Subject: uuid.New()})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProfileNotFound))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := setup(t)

	req := &model.RegisterPatientRequest{Name: "Ana", Email: "ana@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestUpdateContact(t *testing.T) {
	svc, _, _, _ := setup(t)

	p, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	phone := "+36 30 555 0101"
	ident := &model.Identity{Subject: p.Subject, Role: model.RoleTypePatient}
	updated, err := svc.UpdateContact(context.Background(), ident, &model.UpdatePatientContactRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
}

func TestUpdateMedicalDoctorOnly(t *testing.T) {
	svc, _, doctorRepo, _ := setup(t)

	p, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	allergies := "penicillin"
	patIdent := &model.Identity{Subject: p.Subject, Role: model.RoleTypePatient}
	_, err = svc.UpdateMedical(context.Background(), patIdent, p.ID, &model.UpdatePatientMedicalRequest{Allergies: &allergies})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))

	doctor := &model.Doctor{Subject: uuid.New(), Name: "Dr. Okafor", Email: "okafor@clinic.local", Status: model.DoctorStatusActive}
	require.NoError(t, doctorRepo.Create(context.Background(), doctor))

	docIdent := &model.Identity{Subject: doctor.Subject, Role: model.RoleTypeDoctor}
	updated, err := svc.UpdateMedical(context.Background(), docIdent, p.ID, &model.UpdatePatientMedicalRequest{Allergies: &allergies})
	require.NoError(t, err)
	assert.Equal(t, allergies, updated.Allergies)
}

func TestMedicalRecords(t *testing.T) {
	svc, _, _, recordRepo := setup(t)

	patientID := uuid.New()
	recordRepo.Put(&model.MedicalRecord{PatientID: patientID, Diagnosis: "flu"})
	recordRepo.Put(&model.MedicalRecord{PatientID: uuid.New(), Diagnosis: "other"})

	records, err := svc.MedicalRecords(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "flu", records[0].Diagnosis)
}
