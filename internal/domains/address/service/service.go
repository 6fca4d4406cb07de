package service

import (
	"context"
	"strings"
	"time"

	a "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const wardCacheTTL = 24 * time.Hour

type addressService struct {
	repo  a.Repository
	cache cache.Cache
}

func NewAddressService(repo a.Repository, cache cache.Cache) a.ServiceInterface {
	return &addressService{repo: repo, cache: cache}
}

func (s *addressService) ListWards(ctx context.Context, search string) ([]a.Ward, error) {
	return s.repo.List(ctx, strings.TrimSpace(search), 200)
}

func (s *addressService) GetWard(ctx context.Context, code string) (*a.Ward, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, a.ErrInvalidWardCode
	}

	key := "ward:" + code
	var cached a.Ward
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("ward cache get failed", map[string]interface{}{"code": code, "error": err.Error()})
	} else if found {
		return &cached, nil
	}

	ward, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ward == nil {
		return nil, a.ErrWardNotFound
	}

	if err := s.cache.Set(ctx, key, ward, wardCacheTTL); err != nil {
		logger.Warn("ward cache set failed", map[string]interface{}{"code": code, "error": err.Error()})
	}
	return ward, nil
}

// ResolveWardCodes - tên không khớp phường nào thì bỏ qua
func (s *addressService) ResolveWardCodes(ctx context.Context, names []string) (map[string]struct{}, error) {
	codes := make(map[string]struct{})
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found, err := s.repo.FindCodesByName(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			codes[c] = struct{}{}
		}
	}
	return codes, nil
}
