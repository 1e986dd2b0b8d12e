package repository_test

import (
	"context"
	"testing"

	"go.trai.ch/mirror/internal/adapters/querycache"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports/mocks"
	"go.trai.ch/mirror/internal/engine/repository"
	"go.trai.ch/mirror/internal/engine/store"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store     *store.Store
	transport *mocks.MockTransport
	channel   *mocks.MockRealtimeChannel
	logger    *mocks.MockLogger
	cache     *querycache.Cache
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
		logger:    logger,
		cache:     querycache.New(querycache.Options{}),
	}
}

// coldDeps mirrors the bundle handed to cold repositories: cache, no channel.
func (f *fixture) coldDeps() repository.Deps {
	return repository.Deps{Store: f.store, Transport: f.transport, Cache: f.cache, Logger: f.logger}
}

// hotDeps mirrors the bundle handed to hot repositories.
func (f *fixture) hotDeps() repository.Deps {
	return repository.Deps{Store: f.store, Transport: f.transport, Cache: f.cache, Channel: f.channel, Logger: f.logger}
}

// respond decodes v into the out argument of a transport call.
func respond[T any](v T) func(context.Context, string, any, any) error {
	return func(_ context.Context, _ string, _ any, out any) error {
		*out.(*T) = v
		return nil
	}
}

func conflict(method, path string) *domain.APIError {
	return &domain.APIError{Kind: domain.KindConflict, Status: 409, Method: method, Path: path, Message: "stale"}
}

func notFound(path string) *domain.APIError {
	return &domain.APIError{Kind: domain.KindNotFound, Status: 404, Method: "GET", Path: path}
}

func ptr[T any](v T) *T { return &v }
