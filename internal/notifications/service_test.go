package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gotogether/ride-pooling/pkg/common"
)

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) GetNotificationByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *mockNotificationStore) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *mockNotificationStore) ListSystemByRecipient(ctx context.Context, recipientID uuid.UUID) ([]SystemNotification, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SystemNotification), args.Error(1)
}

func (m *mockNotificationStore) MarkSystemRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*SystemNotification, error) {
	args := m.Called(ctx, notificationID, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SystemNotification), args.Error(1)
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *mockNotificationStore) Accept(ctx context.Context, notificationID uuid.UUID) (*RespondResult, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RespondResult), args.Error(1)
}

func (m *mockNotificationStore) Reject(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func pendingNotification(recipientID uuid.UUID) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		GroupID:     uuid.New(),
		Kind:        KindRideAssignment,
		Status:      StatusPending,
		SentAt:      time.Now().UTC(),
	}
}

func TestAccept_Succeeds(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)

	accepted := *notification
	accepted.Status = StatusAccepted
	now := time.Now().UTC()
	accepted.RespondedAt = &now

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)
	store.On("Accept", mock.Anything, notification.ID).
		Return(&RespondResult{Notification: &accepted, GroupConfirmed: false}, nil)

	result, err := svc.Accept(context.Background(), notification.ID, recipient)

	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, result.Notification.Status)
	assert.False(t, result.GroupConfirmed)
	store.AssertExpectations(t)
}

func TestAccept_FinalMemberConfirmsGroup(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)

	accepted := *notification
	accepted.Status = StatusAccepted

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)
	store.On("Accept", mock.Anything, notification.ID).
		Return(&RespondResult{Notification: &accepted, GroupConfirmed: true}, nil)

	result, err := svc.Accept(context.Background(), notification.ID, recipient)

	require.NoError(t, err)
	assert.True(t, result.GroupConfirmed)
	store.AssertExpectations(t)
}

func TestAccept_ForbidsNonRecipient(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	notification := pendingNotification(uuid.New())
	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.Accept(context.Background(), notification.ID, uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForbidden)
	store.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestAccept_RejectsNonPending(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)
	notification.Status = StatusAccepted

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.Accept(context.Background(), notification.ID, recipient)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	store.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestReject_Succeeds(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)

	rejected := *notification
	rejected.Status = StatusRejected

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)
	store.On("Reject", mock.Anything, notification.ID).Return(&rejected, nil)

	updated, err := svc.Reject(context.Background(), notification.ID, recipient)

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)
	store.AssertExpectations(t)
}

func TestReject_RejectsNonPending(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)
	notification.Status = StatusRejected

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.Reject(context.Background(), notification.ID, recipient)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	store.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything)
}

func TestMarkRead_TransitionsPendingToRead(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)

	read := *notification
	read.Status = StatusRead

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)
	store.On("MarkRead", mock.Anything, notification.ID).Return(&read, nil)

	updated, err := svc.MarkRead(context.Background(), notification.ID, recipient)

	require.NoError(t, err)
	assert.Equal(t, StatusRead, updated.Status)
	store.AssertExpectations(t)
}

func TestMarkRead_ForbidsNonRecipient(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	notification := pendingNotification(uuid.New())
	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.MarkRead(context.Background(), notification.ID, uuid.New())

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrForbidden)
	store.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestMarkRead_RejectsNonPending(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)
	notification.Status = StatusRead

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.MarkRead(context.Background(), notification.ID, recipient)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	store.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestAcceptAfterRead_Fails(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	notification := pendingNotification(recipient)
	notification.Status = StatusRead

	store.On("GetNotificationByID", mock.Anything, notification.ID).Return(notification, nil)

	_, err := svc.Accept(context.Background(), notification.ID, recipient)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	store.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestInbox_MergesBothFeeds(t *testing.T) {
	store := new(mockNotificationStore)
	svc := NewService(store, nil)

	recipient := uuid.New()
	ride := []Notification{*pendingNotification(recipient)}
	system := []SystemNotification{{
		ID:          uuid.New(),
		RecipientID: recipient,
		Title:       "Group Chat Available",
	}}

	store.On("ListByRecipient", mock.Anything, recipient).Return(ride, nil)
	store.On("ListSystemByRecipient", mock.Anything, recipient).Return(system, nil)

	inbox, err := svc.Inbox(context.Background(), recipient)

	require.NoError(t, err)
	assert.Len(t, inbox.RideNotifications, 1)
	assert.Len(t, inbox.SystemNotifications, 1)
}
