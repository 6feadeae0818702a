package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"stellarreg/api/internal/ids"
	"stellarreg/api/internal/models"
	"stellarreg/api/internal/repository"
)

var (
	ErrRollNumberRequired   = errors.New("roll number is required")
	ErrInvalidRollNumber    = errors.New("invalid roll number format")
	ErrUnknownBranch        = errors.New("unknown branch")
	ErrAlreadyRegistered    = errors.New("already registered with this roll number")
	ErrRegistrationNotFound = errors.New("registration not found")
)

const MaxRollNumberLen = 50

var rollNumberPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type RegistrationStore interface {
	Create(ctx context.Context, reg models.Registration) (models.Registration, error)
	FindByRollNumber(ctx context.Context, rollNumber string) (models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	Delete(ctx context.Context, id string) error
	CountByBranch(ctx context.Context) ([]models.BranchCount, error)
}

type RegistrationService struct {
	store RegistrationStore
}

func NewRegistrationService(store RegistrationStore) *RegistrationService {
	return &RegistrationService{store: store}
}

type CreateRegistrationInput struct {
	Name       string
	RollNumber string
	Email      string
	Phone      string
	Branch     string
}

func (s *RegistrationService) Create(ctx context.Context, input CreateRegistrationInput) (models.Registration, error) {
	branch, ok := models.LookupBranch(strings.TrimSpace(input.Branch))
	if !ok {
		return models.Registration{}, ErrUnknownBranch
	}

	rollNumber, err := SanitizeRollNumber(input.RollNumber)
	if err != nil {
		return models.Registration{}, err
	}

	reg, err := s.store.Create(ctx, models.Registration{
		ID:         ids.New(),
		Name:       strings.TrimSpace(input.Name),
		RollNumber: rollNumber,
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:      strings.TrimSpace(input.Phone),
		Branch:     branch.Name,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRollNumber) {
			return models.Registration{}, ErrAlreadyRegistered
		}
		return models.Registration{}, fmt.Errorf("create registration: %w", err)
	}
	return reg, nil
}

// SanitizeRollNumber trims and truncates raw before checking it against the
// allowed character set. It is input hygiene; queries stay parameterized.
func SanitizeRollNumber(raw string) (string, error) {
	rollNumber := strings.TrimSpace(raw)
	if rollNumber == "" {
		return "", ErrRollNumberRequired
	}
	if runes := []rune(rollNumber); len(runes) > MaxRollNumberLen {
		rollNumber = string(runes[:MaxRollNumberLen])
	}
	if !rollNumberPattern.MatchString(rollNumber) {
		return "", ErrInvalidRollNumber
	}
	return rollNumber, nil
}

// SearchByRollNumber reports found=false rather than an error when nobody
// registered with rollNumber.
func (s *RegistrationService) SearchByRollNumber(ctx context.Context, raw string) (models.Registration, bool, error) {
	rollNumber, err := SanitizeRollNumber(raw)
	if err != nil {
		return models.Registration{}, false, err
	}

	reg, err := s.store.FindByRollNumber(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return models.Registration{}, false, nil
		}
		return models.Registration{}, false, fmt.Errorf("find registration: %w", err)
	}
	return reg, true, nil
}

func (s *RegistrationService) List(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

func (s *RegistrationService) BranchCounts(ctx context.Context) ([]models.BranchCount, error) {
	counts, err := s.store.CountByBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return counts, nil
}
