package auth

import (
	"net/http"

	"github.com/angelmondragon/souq-backend/api/responses"
	"github.com/angelmondragon/souq-backend/api/validators"
	internalauth "github.com/angelmondragon/souq-backend/internal/auth"
	"github.com/angelmondragon/souq-backend/pkg/logger"
)

// Register creates a storefront customer. The client logs in afterwards.
func Register(svc internalauth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "register", svc != nil, func(r *http.Request) (responses.Reply, error) {
		req, err := validators.Decode[internalauth.RegisterRequest](r)
		if err != nil {
			return responses.Reply{}, err
		}
		customer, err := svc.Register(r.Context(), req)
		return responses.Created(customer), err
	})
}

// Login authenticates a customer by phone or email.
func Login(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "auth", svc != nil, func(r *http.Request) (responses.Reply, error) {
		req, err := validators.Decode[internalauth.LoginRequest](r)
		if err != nil {
			return responses.Reply{}, err
		}
		session, err := svc.Login(r.Context(), req)
		return responses.OK(session), err
	})
}

func StaffLogin(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "auth", svc != nil, func(r *http.Request) (responses.Reply, error) {
		req, err := validators.Decode[internalauth.StaffLoginRequest](r)
		if err != nil {
			return responses.Reply{}, err
		}
		session, err := svc.StaffLogin(r.Context(), req)
		return responses.OK(session), err
	})
}

// CreateStaff lets an admin open an admin or operator account.
func CreateStaff(svc internalauth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return responses.Handler(logg, "register", svc != nil, func(r *http.Request) (responses.Reply, error) {
		req, err := validators.Decode[internalauth.CreateStaffRequest](r)
		if err != nil {
			return responses.Reply{}, err
		}
		staff, err := svc.CreateStaff(r.Context(), req)
		return responses.Created(staff), err
	})
}
