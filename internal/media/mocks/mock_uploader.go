package mocks

import (
	"context"

	"blogapi/internal/media"

	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, f media.File) (media.Asset, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(media.Asset), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
