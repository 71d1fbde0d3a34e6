package usecase_test

import (
	"context"
	"testing"

	"linkhub/domain/dto"
	"linkhub/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProbe struct {
	mock.Mock
}

func (m *MockProbe) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestHealthUsecase_AllComponentsUp(t *testing.T) {
	db := new(MockProbe)
	cache := new(MockProbe)
	db.On("Ping", mock.Anything).Return(nil).Once()
	cache.On("Ping", mock.Anything).Return(nil).Once()

	res := usecase.NewHealthUsecase(map[string]usecase.Probe{
		"database": db.Ping,
		"redis":    cache.Ping,
	}).Check(context.Background())

	assert.Equal(t, dto.HealthOK, res.Status)
	assert.Equal(t, map[string]string{"database": "OK", "redis": "OK"}, res.Components)
	db.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestHealthUsecase_FailingProbeDegrades(t *testing.T) {
	db := new(MockProbe)
	mongo := new(MockProbe)
	db.On("Ping", mock.Anything).Return(nil).Once()
	mongo.On("Ping", mock.Anything).Return(assert.AnError).Once()

	res := usecase.NewHealthUsecase(map[string]usecase.Probe{
		"database": db.Ping,
		"mongo":    mongo.Ping,
	}).Check(context.Background())

	assert.Equal(t, dto.HealthDegraded, res.Status)
	assert.Equal(t, "OK", res.Components["database"])
	assert.Equal(t, assert.AnError.Error(), res.Components["mongo"])
}

func TestHealthUsecase_NoProbes(t *testing.T) {
	res := usecase.NewHealthUsecase(nil).Check(context.Background())
	assert.Equal(t, dto.HealthOK, res.Status)
	assert.Empty(t, res.Components)
}
