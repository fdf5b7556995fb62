package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"residence/internal/domain/directory"
)

// Residents is the directory slice auth needs. Satisfied by
// directory.Repository.
type Residents interface {
	CreateResident(ctx context.Context, r *directory.Resident) error
	GetResidentByEmail(ctx context.Context, email string) (*directory.Resident, error)
}

type tokenIssuer interface {
	GenerateToken(residentID int64) (string, error)
}

// Service contains account registration and login logic.
type Service struct {
	residents Residents
	jwt       tokenIssuer
}

func NewService(residents Residents, jwt tokenIssuer) *Service {
	return &Service{residents: residents, jwt: jwt}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.residents.GetResidentByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, directory.ErrResidentNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	resident := &directory.Resident{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		CreatedAt:    time.Now(),
	}
	if err := s.residents.CreateResident(ctx, resident); err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(resident.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, Resident: resident}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	resident, err := s.residents.GetResidentByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrResidentNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(resident.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(resident.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, Resident: resident}, nil
}
