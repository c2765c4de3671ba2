package notification

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Send(ctx context.Context, ev Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *mockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
