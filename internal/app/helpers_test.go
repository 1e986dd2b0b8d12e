package app_test

import (
	"context"
	"testing"

	"go.trai.ch/mirror/internal/app"
	"go.trai.ch/mirror/internal/core/ports/mocks"
	"go.trai.ch/mirror/internal/engine/store"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store     *store.Store
	transport *mocks.MockTransport
	channel   *mocks.MockRealtimeChannel
	cache     *mocks.MockQueryCache
	logger    *mocks.MockLogger
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	return &fixture{
		store:     store.New(),
		transport: mocks.NewMockTransport(ctrl),
		channel:   mocks.NewMockRealtimeChannel(ctrl),
		cache:     mocks.NewMockQueryCache(ctrl),
		logger:    logger,
	}
}

func (f *fixture) bundle() app.Bundle {
	return app.Bundle{
		Store:     f.store,
		Transport: f.transport,
		Channel:   f.channel,
		Logger:    f.logger,
	}
}

func respond[T any](v T) func(context.Context, string, any, any) error {
	return func(_ context.Context, _ string, _ any, out any) error {
		*out.(*T) = v
		return nil
	}
}
