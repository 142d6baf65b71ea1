package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageStore struct {
	mu        sync.Mutex
	uploaded  map[string]string
	deleted   []string
	uploadErr error
}

func (s *fakeImageStore) Upload(_ context.Context, key, _ string, _ int64, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string]string{}
	}
	s.uploaded[key] = string(data)
	return "https://cdn.test/doctor-images/" + key, nil
}

func (s *fakeImageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

func newDoctorFixture(t *testing.T, images *fakeImageStore) (*memStore, *fakeDoctorRepo, *fakeAuditRepo, *doctorUsecase) {
	t.Helper()
	store := newMemStore()
	repo := &fakeDoctorRepo{memStore: store}
	audit := &fakeAuditRepo{}
	var uc DoctorUsecase
	if images != nil {
		uc = NewDoctorUsecase(newTestLogger(), repo, images, newTestAuditService(audit), newTestCache(), 1024)
	} else {
		uc = NewDoctorUsecase(newTestLogger(), repo, nil, newTestAuditService(audit), newTestCache(), 1024)
	}
	du := uc.(*doctorUsecase)
	du.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return store, repo, audit, du
}

func TestDoctor_CreateAndDuplicateEmail(t *testing.T) {
	_, _, audit, uc := newDoctorFixture(t, nil)
	req := &dto.CreateDoctorRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@clinic.test"}

	res, err := uc.CreateDoctor(context.Background(), nil, req)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ada Lovelace", res.DisplayName)
	assert.Equal(t, []string{entity.AuditActionDoctorCreate}, audit.actions())

	_, err = uc.CreateDoctor(context.Background(), nil, req)
	assert.ErrorIs(t, err, ErrDoctorEmailExists)
}

func TestDoctor_UpdateKeepsUnsetFields(t *testing.T) {
	store, _, _, uc := newDoctorFixture(t, nil)
	doctor := store.addDoctor("Ada", "Lovelace")
	specialty := "Neurology"

	res, err := uc.UpdateDoctor(context.Background(), nil, doctor.ID, &dto.UpdateDoctorRequest{Specialty: &specialty})
	require.NoError(t, err)
	assert.Equal(t, "Neurology", res.Specialty)
	assert.Equal(t, "Ada", res.FirstName)
}

func TestDoctor_DeleteWithAppointmentsRefused(t *testing.T) {
	store, repo, _, uc := newDoctorFixture(t, nil)
	doctor := store.addDoctor("Ada", "Lovelace")
	repo.deleteErr = errForeignKey

	assert.ErrorIs(t, uc.DeleteDoctor(context.Background(), nil, doctor.ID), ErrDoctorHasAppointments)
	assert.ErrorIs(t, uc.DeleteDoctor(context.Background(), nil, uuid.New()), ErrDoctorNotFound)
}

func TestDoctor_UploadProfilePicture(t *testing.T) {
	images := &fakeImageStore{}
	store, _, _, uc := newDoctorFixture(t, images)
	doctor := store.addDoctor("Ada", "Lovelace")
	doctor.ProfilePictureURL = "https://cdn.test/doctor-images/old.png"

	res, err := uc.UploadProfilePicture(context.Background(), nil, doctor.ID, ImageUpload{
		Filename: "portrait.PNG", ContentType: "image/png", Size: 4, Body: strings.NewReader("data"),
	})
	require.NoError(t, err)

	key := doctor.ID.String() + "-1700000000000.png"
	assert.Equal(t, "https://cdn.test/doctor-images/"+key, res.ProfilePictureURL)
	assert.Equal(t, "data", images.uploaded[key])
	assert.Equal(t, []string{"https://cdn.test/doctor-images/old.png"}, images.deleted)
}

func TestDoctor_UploadProfilePictureRejectsBadFiles(t *testing.T) {
	images := &fakeImageStore{}
	store, _, _, uc := newDoctorFixture(t, images)
	doctor := store.addDoctor("Ada", "Lovelace")

	_, err := uc.UploadProfilePicture(context.Background(), nil, doctor.ID, ImageUpload{
		Filename: "cv.pdf", ContentType: "application/pdf", Size: 10, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrInvalidImageType)

	_, err = uc.UploadProfilePicture(context.Background(), nil, doctor.ID, ImageUpload{
		Filename: "big.jpg", ContentType: "image/jpeg", Size: 4096, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrImageTooLarge)

	images.uploadErr = errors.New("bucket missing")
	_, err = uc.UploadProfilePicture(context.Background(), nil, doctor.ID, ImageUpload{
		Filename: "ok.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x"),
	})
	assert.Error(t, err)
	assert.Empty(t, images.uploaded)
}

func TestDoctor_ImageStorageDisabled(t *testing.T) {
	store, _, _, uc := newDoctorFixture(t, nil)
	doctor := store.addDoctor("Ada", "Lovelace")

	_, err := uc.UploadProfilePicture(context.Background(), nil, doctor.ID, ImageUpload{ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrImageStorageDisabled)
}
