package usecase

import (
	"context"
	"sort"
	"time"

	"linkhub/domain/dto"
	"linkhub/infrastructure/logger"
)

const probeTimeout = 3 * time.Second

// Probe reports whether one backing service answers
type Probe func(ctx context.Context) error

type IHealthUsecase interface {
	Check(ctx context.Context) dto.HealthResponse
}

type HealthUsecase struct {
	probes map[string]Probe
}

var _ IHealthUsecase = (*HealthUsecase)(nil)

func NewHealthUsecase(probes map[string]Probe) *HealthUsecase {
	if probes == nil {
		probes = map[string]Probe{}
	}
	return &HealthUsecase{probes: probes}
}

// Check runs every probe; the response is healthy only when all of them pass
func (u *HealthUsecase) Check(ctx context.Context) dto.HealthResponse {
	res := dto.HealthResponse{Status: dto.HealthOK, Components: map[string]string{}}
	names := make([]string, 0, len(u.probes))
	for name := range u.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := u.probes[name](pctx)
		cancel()
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{"component": name, "error": err}).Warn("Health probe failed")
			res.Components[name] = err.Error()
			res.Status = dto.HealthDegraded
			continue
		}
		res.Components[name] = dto.HealthOK
	}
	return res
}
