package middleware

import (
	"net/http"

	"clinic-booking/internal/domain/repository"
	"clinic-booking/pkg/response"

	"github.com/sirupsen/logrus"
)

// AdminGuard rejects tokens whose admin account no longer exists.
// Must run after AuthMiddleware.Authenticate.
type AdminGuard struct {
	adminRepo repository.AdminUserRepository
	log       *logrus.Logger
}

func NewAdminGuard(adminRepo repository.AdminUserRepository, log *logrus.Logger) *AdminGuard {
	return &AdminGuard{adminRepo: adminRepo, log: log}
}

func (g *AdminGuard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := GetAdminIDFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Admin information not found")
			return
		}

		admin, err := g.adminRepo.FindByID(r.Context(), adminID)
		if err != nil {
			g.log.Warnf("Failed to load admin %s: %+v", adminID, err)
			response.InternalServerError(w, "Failed to validate admin")
			return
		}
		if admin == nil {
			response.Forbidden(w, "You don't have permission to access this resource")
			return
		}

		next.ServeHTTP(w, r)
	})
}
