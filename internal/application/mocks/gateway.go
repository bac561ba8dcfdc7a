// Package mocks holds testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/DanielPopoola/sisi-payments/internal/application"
	"github.com/stretchr/testify/mock"
)

type MockGatewayClient struct {
	mock.Mock
}

// NewMockGatewayClient registers a cleanup that asserts every expectation was met.
func NewMockGatewayClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGatewayClient {
	m := &MockGatewayClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGatewayClient) Register(ctx context.Context, req application.RegisterRequest) (*application.RegisterResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*application.RegisterResponse)
	return resp, args.Error(1)
}

func (m *MockGatewayClient) Verify(ctx context.Context, req application.VerifyRequest) (*application.VerifyResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*application.VerifyResponse)
	return resp, args.Error(1)
}

func (m *MockGatewayClient) StatusBySessionID(ctx context.Context, sessionID string) (*application.TransactionStatus, error) {
	args := m.Called(ctx, sessionID)
	resp, _ := args.Get(0).(*application.TransactionStatus)
	return resp, args.Error(1)
}

func (m *MockGatewayClient) StatusByOrderID(ctx context.Context, externalOrderID string) (*application.TransactionStatus, error) {
	args := m.Called(ctx, externalOrderID)
	resp, _ := args.Get(0).(*application.TransactionStatus)
	return resp, args.Error(1)
}

type MockVerificationQueue struct {
	mock.Mock
}

func NewMockVerificationQueue(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockVerificationQueue {
	m := &MockVerificationQueue{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVerificationQueue) Enqueue(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
