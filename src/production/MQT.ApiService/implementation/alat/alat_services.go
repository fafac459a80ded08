package alat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrAlatExists = errors.New("alat id already exists")
	ErrNoAlat     = errors.New("no alat registered for this user")
)

// AlatService manages the device registry
type AlatService struct {
	alatRepo interfaces.AlatRepository
}

func NewAlatService(alatRepo interfaces.AlatRepository) *AlatService {
	return &AlatService{alatRepo: alatRepo}
}

// AddAlat registers a device for owner. The existence pre-check only gives
// an early answer; the primary key on idalat decides a race.
func (s *AlatService) AddAlat(ctx context.Context, owner string, req api_models.AddAlatRequest) error {
	req.IDAlat = strings.TrimSpace(req.IDAlat)
	if owner == "" || req.NamaAnak == "" || req.Usia <= 0 || req.JenisKelamin == "" || req.IDAlat == "" {
		return fmt.Errorf("%w: nama_anak, usia, jeniskelamin and idalat are required", ErrValidation)
	}

	jk, ok := hardware_models.ParseJenisKelamin(req.JenisKelamin)
	if !ok {
		return fmt.Errorf("%w: jeniskelamin must be L or P", ErrValidation)
	}

	exists, err := s.alatRepo.Exists(ctx, req.IDAlat)
	if err != nil {
		return fmt.Errorf("failed to check alat: %w", err)
	}
	if exists {
		return ErrAlatExists
	}

	err = s.alatRepo.Create(ctx, hardware_models.Alat{
		IDAlat:       req.IDAlat,
		Username:     owner,
		NamaAnak:     req.NamaAnak,
		Usia:         req.Usia,
		JenisKelamin: jk,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return ErrAlatExists
		}
		return fmt.Errorf("failed to create alat: %w", err)
	}

	return nil
}

// ListAlat returns the devices of owner, ErrNoAlat when there are none
func (s *AlatService) ListAlat(ctx context.Context, owner string) ([]hardware_models.AlatSummary, error) {
	alat, err := s.alatRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list alat: %w", err)
	}
	if len(alat) == 0 {
		return nil, ErrNoAlat
	}
	return alat, nil
}

// Exists reports whether idalat is registered
func (s *AlatService) Exists(ctx context.Context, idalat string) (bool, error) {
	return s.alatRepo.Exists(ctx, idalat)
}
