package mailer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"edu-platform/internal/model"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg Message) (model.EmailReceipt, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(model.EmailReceipt), args.Error(1)
}
