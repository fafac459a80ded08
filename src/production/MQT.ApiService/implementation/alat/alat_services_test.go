package alat

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

type memAlatRepo struct {
	mu   sync.Mutex
	rows map[string]hardware_models.Alat

	// existsLies makes Exists report false so the insert path sees the conflict
	existsLies bool
}

func newMemAlatRepo() *memAlatRepo {
	return &memAlatRepo{rows: make(map[string]hardware_models.Alat)}
}

func (r *memAlatRepo) Create(_ context.Context, a hardware_models.Alat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.IDAlat]; ok {
		return interfaces.ErrDuplicate
	}
	r.rows[a.IDAlat] = a
	return nil
}

func (r *memAlatRepo) Exists(_ context.Context, idalat string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLies {
		return false, nil
	}
	_, ok := r.rows[idalat]
	return ok, nil
}

func (r *memAlatRepo) ListByOwner(_ context.Context, username string) ([]hardware_models.AlatSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]hardware_models.AlatSummary, 0)
	for _, a := range r.rows {
		if a.Username == username {
			out = append(out, hardware_models.AlatSummary{NamaAnak: a.NamaAnak, IDAlat: a.IDAlat})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IDAlat < out[j].IDAlat })
	return out, nil
}

func validRequest(id string) api_models.AddAlatRequest {
	return api_models.AddAlatRequest{NamaAnak: "Sari", Usia: 4, JenisKelamin: "perempuan", IDAlat: id}
}

func TestAddAlat(t *testing.T) {
	repo := newMemAlatRepo()
	svc := NewAlatService(repo)

	require.NoError(t, svc.AddAlat(context.Background(), "budi", validRequest("A1")))

	stored := repo.rows["A1"]
	assert.Equal(t, "budi", stored.Username)
	assert.Equal(t, hardware_models.Perempuan, stored.JenisKelamin)
}

func TestAddAlatValidation(t *testing.T) {
	svc := NewAlatService(newMemAlatRepo())

	tests := []struct {
		name   string
		mutate func(r *api_models.AddAlatRequest)
	}{
		{"missing nama_anak", func(r *api_models.AddAlatRequest) { r.NamaAnak = "" }},
		{"zero usia", func(r *api_models.AddAlatRequest) { r.Usia = 0 }},
		{"missing idalat", func(r *api_models.AddAlatRequest) { r.IDAlat = "  " }},
		{"unknown jeniskelamin", func(r *api_models.AddAlatRequest) { r.JenisKelamin = "X" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("A1")
			tt.mutate(&req)
			assert.ErrorIs(t, svc.AddAlat(context.Background(), "budi", req), ErrValidation)
		})
	}
}

func TestAddAlatDuplicate(t *testing.T) {
	repo := newMemAlatRepo()
	svc := NewAlatService(repo)
	require.NoError(t, svc.AddAlat(context.Background(), "budi", validRequest("A1")))

	assert.ErrorIs(t, svc.AddAlat(context.Background(), "ani", validRequest("A1")), ErrAlatExists)

	// lost race: pre-check passes, the insert hits the key
	repo.existsLies = true
	assert.ErrorIs(t, svc.AddAlat(context.Background(), "ani", validRequest("A1")), ErrAlatExists)
	assert.Equal(t, "budi", repo.rows["A1"].Username)
}

func TestListAlat(t *testing.T) {
	svc := NewAlatService(newMemAlatRepo())

	_, err := svc.ListAlat(context.Background(), "budi")
	assert.ErrorIs(t, err, ErrNoAlat)

	require.NoError(t, svc.AddAlat(context.Background(), "budi", validRequest("B2")))
	require.NoError(t, svc.AddAlat(context.Background(), "budi", validRequest("A1")))
	require.NoError(t, svc.AddAlat(context.Background(), "ani", validRequest("C3")))

	alat, err := svc.ListAlat(context.Background(), "budi")
	require.NoError(t, err)
	assert.Equal(t, []hardware_models.AlatSummary{
		{NamaAnak: "Sari", IDAlat: "A1"},
		{NamaAnak: "Sari", IDAlat: "B2"},
	}, alat)
}
