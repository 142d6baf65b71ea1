package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/cache"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorEmailExists     = errors.New("doctor email already exists")
	ErrDoctorHasAppointments = errors.New("doctor still has time slots or appointments")
	ErrInvalidImageType      = errors.New("only image files are allowed")
	ErrImageTooLarge         = errors.New("image exceeds the maximum allowed size")
	ErrImageStorageDisabled  = errors.New("image storage is not configured")
)

// ImageUpload is a profile picture received from an admin.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type DoctorUsecase interface {
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	CreateDoctor(ctx context.Context, adminID *uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error)
	UpdateDoctor(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	DeleteDoctor(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error
	UploadProfilePicture(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, upload ImageUpload) (*dto.DoctorResponse, error)
	DeleteProfilePicture(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	log           *logrus.Logger
	doctorRepo    repository.DoctorRepository
	imageStore    service.ImageStore
	auditService  service.AuditService
	cache         *cache.Cache
	maxImageBytes int64
	now           func() time.Time
}

// NewDoctorUsecase builds the admin doctor usecase. imageStore may be nil,
// in which case picture uploads are refused.
func NewDoctorUsecase(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	imageStore service.ImageStore,
	auditService service.AuditService,
	cache *cache.Cache,
	maxImageBytes int64,
) DoctorUsecase {
	return &doctorUsecase{
		log:           log,
		doctorRepo:    doctorRepo,
		imageStore:    imageStore,
		auditService:  auditService,
		cache:         cache,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (u *doctorUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(ctx)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, transient(err)
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) CreateDoctor(ctx context.Context, adminID *uuid.UUID, req *dto.CreateDoctorRequest) (*dto.DoctorResponse, error) {
	doctor := &entity.Doctor{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Specialty:   req.Specialty,
		Description: req.Description,
	}

	if err := u.doctorRepo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to create doctor: %+v", err)
		return nil, transient(err)
	}

	u.invalidateDoctor(ctx, doctor.ID)
	if err := u.auditService.LogCreate(ctx, adminID, entity.AuditActionDoctorCreate, "doctor", doctor.ID.String(), doctor); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) UpdateDoctor(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	old := *doctor

	if req.FirstName != "" {
		doctor.FirstName = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		doctor.LastName = strings.TrimSpace(req.LastName)
	}
	if req.Email != "" {
		doctor.Email = strings.TrimSpace(req.Email)
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.Description != nil {
		doctor.Description = *req.Description
	}

	if err := u.doctorRepo.Update(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDoctorEmailExists
		}
		u.log.Warnf("Failed to update doctor: %+v", err)
		return nil, transient(err)
	}

	u.invalidateDoctor(ctx, id)
	if err := u.auditService.LogUpdate(ctx, adminID, entity.AuditActionDoctorUpdate, "doctor", id.String(), old, doctor); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) DeleteDoctor(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error {
	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return err
	}

	affected, err := u.doctorRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return ErrDoctorHasAppointments
		}
		u.log.Warnf("Failed to delete doctor: %+v", err)
		return transient(err)
	}
	if affected == 0 {
		return ErrDoctorNotFound
	}

	if doctor.ProfilePictureURL != "" && u.imageStore != nil {
		if err := u.imageStore.Delete(ctx, doctor.ProfilePictureURL); err != nil {
			u.log.Warnf("Failed to delete profile picture of removed doctor: %+v", err)
		}
	}

	u.invalidateDoctor(ctx, id)
	u.cache.ClearPrefix(ctx, slotsPrefix(id))
	if err := u.auditService.LogDelete(ctx, adminID, entity.AuditActionDoctorDelete, "doctor", id.String(), doctor); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return nil
}

// UploadProfilePicture stores an image under <doctorID>-<unix-ms>.<ext> and
// replaces the doctor's current picture.
func (u *doctorUsecase) UploadProfilePicture(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, upload ImageUpload) (*dto.DoctorResponse, error) {
	if u.imageStore == nil {
		return nil, ErrImageStorageDisabled
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, ErrInvalidImageType
	}
	if u.maxImageBytes > 0 && upload.Size > u.maxImageBytes {
		return nil, ErrImageTooLarge
	}

	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := doctor.ProfilePictureURL

	key := fmt.Sprintf("%s-%d%s", id, u.now().UnixMilli(), imageExtension(upload))
	url, err := u.imageStore.Upload(ctx, key, upload.ContentType, upload.Size, upload.Body)
	if err != nil {
		u.log.Warnf("Failed to upload profile picture: %+v", err)
		return nil, err
	}

	if err := u.doctorRepo.UpdateProfilePicture(ctx, id, url); err != nil {
		u.log.Warnf("Failed to save profile picture url: %+v", err)
		if delErr := u.imageStore.Delete(ctx, url); delErr != nil {
			u.log.Warnf("Failed to remove orphaned profile picture: %+v", delErr)
		}
		return nil, transient(err)
	}
	doctor.ProfilePictureURL = url

	if previous != "" {
		if err := u.imageStore.Delete(ctx, previous); err != nil {
			u.log.Warnf("Failed to delete previous profile picture: %+v", err)
		}
	}

	u.invalidateDoctor(ctx, id)
	if err := u.auditService.LogUpdate(ctx, adminID, entity.AuditActionDoctorImageUpload, "doctor", id.String(),
		map[string]string{"profile_picture_url": previous}, map[string]string{"profile_picture_url": url}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) DeleteProfilePicture(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) (*dto.DoctorResponse, error) {
	if u.imageStore == nil {
		return nil, ErrImageStorageDisabled
	}

	doctor, err := u.findDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := doctor.ProfilePictureURL
	if previous == "" {
		return converter.DoctorToResponse(doctor), nil
	}

	if err := u.doctorRepo.UpdateProfilePicture(ctx, id, ""); err != nil {
		u.log.Warnf("Failed to clear profile picture url: %+v", err)
		return nil, transient(err)
	}
	doctor.ProfilePictureURL = ""

	if err := u.imageStore.Delete(ctx, previous); err != nil {
		u.log.Warnf("Failed to delete profile picture: %+v", err)
	}

	u.invalidateDoctor(ctx, id)
	if err := u.auditService.LogUpdate(ctx, adminID, entity.AuditActionDoctorImageUpload, "doctor", id.String(),
		map[string]string{"profile_picture_url": previous}, map[string]string{"profile_picture_url": ""}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.DoctorToResponse(doctor), nil
}

func (u *doctorUsecase) findDoctor(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, transient(err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}

func (u *doctorUsecase) invalidateDoctor(ctx context.Context, id uuid.UUID) {
	u.cache.Clear(ctx, doctorsListKey)
	u.cache.Clear(ctx, doctorKey(id))
}

func imageExtension(upload ImageUpload) string {
	if ext := strings.ToLower(path.Ext(upload.Filename)); ext != "" {
		return ext
	}
	return "." + strings.TrimPrefix(upload.ContentType, "image/")
}
