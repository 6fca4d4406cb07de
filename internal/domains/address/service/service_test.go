package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	a "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/testutil"
)

type fakeWardRepo struct {
	wards []a.Ward
	gets  int
}

func (f *fakeWardRepo) List(_ context.Context, search string, limit int) ([]a.Ward, error) {
	return f.wards, nil
}

func (f *fakeWardRepo) GetByCode(_ context.Context, code string) (*a.Ward, error) {
	f.gets++
	for _, w := range f.wards {
		if w.Code == code {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (f *fakeWardRepo) FindCodesByName(_ context.Context, name string) ([]string, error) {
	var codes []string
	for _, w := range f.wards {
		if strings.Contains(strings.ToLower(w.Name), strings.ToLower(name)) {
			codes = append(codes, w.Code)
		}
	}
	return codes, nil
}

func newSvc() (a.ServiceInterface, *fakeWardRepo) {
	repo := &fakeWardRepo{wards: []a.Ward{
		{Code: "00001", Name: "Phường Bến Nghé", DistrictName: "Quận 1"},
		{Code: "00002", Name: "Phường Bến Thành", DistrictName: "Quận 1"},
		{Code: "00003", Name: "Phường Thảo Điền", DistrictName: "Thủ Đức"},
	}}
	return NewAddressService(repo, testutil.NewMemoryCache()), repo
}

func TestResolveWardCodes(t *testing.T) {
	svc, _ := newSvc()

	codes, err := svc.ResolveWardCodes(context.Background(), []string{"Bến", " ", "không tồn tại"})
	require.NoError(t, err)
	assert.Len(t, codes, 2)
	assert.Contains(t, codes, "00001")
	assert.Contains(t, codes, "00002")
	assert.NotContains(t, codes, "00003")
}

func TestGetWard(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	w, err := svc.GetWard(ctx, "00003")
	require.NoError(t, err)
	assert.Equal(t, "Phường Thảo Điền", w.Name)

	_, err = svc.GetWard(ctx, "00003")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets)

	_, err = svc.GetWard(ctx, "99999")
	assert.ErrorIs(t, err, a.ErrWardNotFound)

	_, err = svc.GetWard(ctx, "")
	assert.ErrorIs(t, err, a.ErrInvalidWardCode)
}

// brokenCache: Redis mất kết nối, Get luôn lỗi
type brokenCache struct {
	*testutil.MemoryCache
}

func (brokenCache) Get(context.Context, string, interface{}) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestGetWard_CacheErrorFallsBackToRepo(t *testing.T) {
	_, repo := newSvc()
	svc := NewAddressService(repo, brokenCache{testutil.NewMemoryCache()})

	w, err := svc.GetWard(context.Background(), "00001")
	require.NoError(t, err)
	assert.Equal(t, "Phường Bến Nghé", w.Name)
	assert.Equal(t, 1, repo.gets)
}
