package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"stellarreg/api/internal/models"
)

// MemoryAdminRepository keeps admins in process memory. It backs local runs
// without postgres and the tests of the layers above.
type MemoryAdminRepository struct {
	mu     sync.RWMutex
	admins map[string]models.AdminAccount
}

func NewMemoryAdminRepository() *MemoryAdminRepository {
	return &MemoryAdminRepository{admins: make(map[string]models.AdminAccount)}
}

func (r *MemoryAdminRepository) Create(_ context.Context, admin models.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.admins {
		if existing.Username == admin.Username {
			return ErrDuplicateUsername
		}
	}
	now := time.Now()
	admin.CreatedAt, admin.UpdatedAt = now, now
	r.admins[admin.ID] = admin
	return nil
}

func (r *MemoryAdminRepository) SetPassword(_ context.Context, username string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, admin := range r.admins {
		if admin.Username == username {
			admin.PasswordHash = passwordHash
			admin.SessionTokenHash = nil
			admin.SessionExpiresAt = nil
			admin.UpdatedAt = time.Now()
			r.admins[id] = admin
			return nil
		}
	}
	return ErrAdminNotFound
}

func (r *MemoryAdminRepository) FindByUsername(_ context.Context, username string) (models.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, admin := range r.admins {
		if admin.Username == username {
			return admin, nil
		}
	}
	return models.AdminAccount{}, ErrAdminNotFound
}

func (r *MemoryAdminRepository) GetByID(_ context.Context, id string) (models.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return models.AdminAccount{}, ErrAdminNotFound
	}
	return admin, nil
}

func (r *MemoryAdminRepository) UpdateSession(_ context.Context, id string, tokenHash []byte, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[id]
	if !ok {
		return ErrAdminNotFound
	}
	admin.SessionTokenHash = append([]byte(nil), tokenHash...)
	admin.SessionExpiresAt = &expiresAt
	admin.UpdatedAt = time.Now()
	r.admins[id] = admin
	return nil
}

func (r *MemoryAdminRepository) ClearSession(_ context.Context, id string, tokenHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[id]
	if !ok || !bytes.Equal(admin.SessionTokenHash, tokenHash) {
		return nil
	}
	admin.SessionTokenHash = nil
	admin.SessionExpiresAt = nil
	admin.UpdatedAt = time.Now()
	r.admins[id] = admin
	return nil
}

func (r *MemoryAdminRepository) ClearExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for id, admin := range r.admins {
		if admin.SessionExpiresAt == nil || admin.SessionExpiresAt.After(now) {
			continue
		}
		admin.SessionTokenHash = nil
		admin.SessionExpiresAt = nil
		r.admins[id] = admin
		cleared++
	}
	return cleared, nil
}

type MemoryRegistrationRepository struct {
	mu            sync.RWMutex
	registrations map[string]models.Registration
	// Now stamps CreatedAt; tests pin it to get a stable order.
	Now func() time.Time
}

func NewMemoryRegistrationRepository() *MemoryRegistrationRepository {
	return &MemoryRegistrationRepository{
		registrations: make(map[string]models.Registration),
		Now:           time.Now,
	}
}

func (r *MemoryRegistrationRepository) Create(_ context.Context, reg models.Registration) (models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.registrations {
		if existing.RollNumber == reg.RollNumber {
			return models.Registration{}, ErrDuplicateRollNumber
		}
	}
	reg.CreatedAt = r.Now()
	r.registrations[reg.ID] = reg
	return reg, nil
}

func (r *MemoryRegistrationRepository) FindByRollNumber(_ context.Context, rollNumber string) (models.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.registrations {
		if reg.RollNumber == rollNumber {
			return reg, nil
		}
	}
	return models.Registration{}, ErrRegistrationNotFound
}

func (r *MemoryRegistrationRepository) List(_ context.Context) ([]models.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]models.Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID > regs[j].ID
		}
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
	return regs, nil
}

func (r *MemoryRegistrationRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registrations[id]; !ok {
		return ErrRegistrationNotFound
	}
	delete(r.registrations, id)
	return nil
}

func (r *MemoryRegistrationRepository) CountByBranch(_ context.Context) ([]models.BranchCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byBranch := make(map[string]int)
	for _, reg := range r.registrations {
		byBranch[reg.Branch]++
	}
	counts := make([]models.BranchCount, 0, len(byBranch))
	for branch, count := range byBranch {
		counts = append(counts, models.BranchCount{Branch: branch, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Branch < counts[j].Branch })
	return counts, nil
}
