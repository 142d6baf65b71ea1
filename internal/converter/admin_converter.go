package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

// AdminToResponse converts an AdminUser entity to AdminResponse DTO
func AdminToResponse(admin *entity.AdminUser) *dto.AdminResponse {
	if admin == nil {
		return nil
	}

	return &dto.AdminResponse{
		ID:        admin.ID,
		Email:     admin.Email,
		FullName:  admin.FullName,
		CreatedAt: admin.CreatedAt,
	}
}
