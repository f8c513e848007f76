package grouping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gotogether/ride-pooling/internal/drivers"
	"github.com/gotogether/ride-pooling/internal/geo"
	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/config"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRideRequest(ctx context.Context, request *RideRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockStore) GetRideRequestByID(ctx context.Context, requestID uuid.UUID) (*RideRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RideRequest), args.Error(1)
}

func (m *mockStore) CancelRideRequest(ctx context.Context, requestID, requesterID uuid.UUID) (*RideRequest, error) {
	args := m.Called(ctx, requestID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RideRequest), args.Error(1)
}

func (m *mockStore) GetGroupByID(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *mockStore) FindOpenGroups(ctx context.Context, destinationAddress string, from, to time.Time) ([]OpenGroup, error) {
	args := m.Called(ctx, destinationAddress, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OpenGroup), args.Error(1)
}

func (m *mockStore) AttachToGroup(ctx context.Context, request *RideRequest, groupID uuid.UUID) (*Group, error) {
	args := m.Called(ctx, request, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Group), args.Error(1)
}

func (m *mockStore) CreateGroupWithDriver(ctx context.Context, request *RideRequest, totalSeats int) (*Group, *drivers.Driver, error) {
	args := m.Called(ctx, request, totalSeats)
	var group *Group
	if args.Get(0) != nil {
		group = args.Get(0).(*Group)
	}
	var driver *drivers.Driver
	if args.Get(1) != nil {
		driver = args.Get(1).(*drivers.Driver)
	}
	return group, driver, args.Error(2)
}

func testGroupingConfig() config.GroupingConfig {
	return config.GroupingConfig{
		PoolingWindowHours: 6,
		DefaultGroupSeats:  4,
		AttachMaxAttempts:  3,
	}
}

func testRequest() *RideRequest {
	return &RideRequest{
		ID:                 uuid.New(),
		RequesterID:        uuid.New(),
		Source:             geo.Coordinate{Latitude: 22.253, Longitude: 84.901},
		SourceAddress:      "Hostel Block E",
		Destination:        geo.Coordinate{Latitude: 22.227, Longitude: 84.858},
		DestinationAddress: "Rourkela Railway Station",
		IsStationBound:     true,
		RequestedTime:      time.Now().UTC().Add(2 * time.Hour),
		PassengerCount:     1,
		Status:             RequestPending,
	}
}

func openGroup(totalSeats, occupied int) OpenGroup {
	return OpenGroup{
		Group: Group{
			ID:                 uuid.New(),
			DestinationAddress: "Rourkela Railway Station",
			TotalSeats:         totalSeats,
			Status:             GroupPendingAcceptance,
		},
		OccupiedSeats: occupied,
	}
}

func TestAutoGroup_AttachesToExistingGroup(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	candidate := openGroup(4, 2)
	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{candidate}, nil).Once()
	store.On("AttachToGroup", mock.Anything, request, candidate.ID).
		Return(&candidate.Group, nil).Once()

	group, outcome, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, candidate.ID, group.ID)
	assert.Equal(t, OutcomeAddedToExisting, outcome)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "CreateGroupWithDriver", mock.Anything, mock.Anything, mock.Anything)
}

func TestAutoGroup_SearchWindowSpansPoolingHours(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress,
		request.RequestedTime.Add(-6*time.Hour), request.RequestedTime.Add(6*time.Hour)).
		Return([]OpenGroup{}, nil).Once()
	store.On("CreateGroupWithDriver", mock.Anything, request, 4).
		Return(&Group{ID: uuid.New()}, &drivers.Driver{ID: uuid.New()}, nil).Once()

	_, _, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAutoGroup_SkipsFullGroups(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	full := openGroup(4, 4)
	created := &Group{ID: uuid.New(), TotalSeats: 4, Status: GroupPendingAcceptance}
	driver := &drivers.Driver{ID: uuid.New()}

	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{full}, nil).Once()
	store.On("CreateGroupWithDriver", mock.Anything, request, 4).
		Return(created, driver, nil).Once()

	group, outcome, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, created.ID, group.ID)
	assert.Equal(t, OutcomeNewTripCreated, outcome)
	store.AssertNotCalled(t, "AttachToGroup", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestAutoGroup_RetriesAfterLostSeatRace(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	first := openGroup(4, 3)
	second := openGroup(4, 1)

	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{first}, nil).Once()
	store.On("AttachToGroup", mock.Anything, request, first.ID).
		Return(nil, common.NewCapacityConflictError("no free seats left in group")).Once()
	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{second}, nil).Once()
	store.On("AttachToGroup", mock.Anything, request, second.ID).
		Return(&second.Group, nil).Once()

	group, outcome, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, second.ID, group.ID)
	assert.Equal(t, OutcomeAddedToExisting, outcome)
	store.AssertExpectations(t)
}

func TestAutoGroup_ExhaustedRetriesFallThroughToCreation(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	contested := openGroup(4, 3)
	created := &Group{ID: uuid.New(), TotalSeats: 4}
	driver := &drivers.Driver{ID: uuid.New()}

	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{contested}, nil).Times(3)
	store.On("AttachToGroup", mock.Anything, request, contested.ID).
		Return(nil, common.NewCapacityConflictError("no free seats left in group")).Times(3)
	store.On("CreateGroupWithDriver", mock.Anything, request, 4).
		Return(created, driver, nil).Once()

	group, outcome, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, created.ID, group.ID)
	assert.Equal(t, OutcomeNewTripCreated, outcome)
	store.AssertExpectations(t)
}

func TestAutoGroup_NoDriverAvailable(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	request := testRequest()

	store.On("FindOpenGroups", mock.Anything, request.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{}, nil).Once()
	store.On("CreateGroupWithDriver", mock.Anything, request, 4).
		Return(nil, nil, nil).Once()

	group, outcome, err := svc.AutoGroup(context.Background(), request)

	require.NoError(t, err)
	assert.Nil(t, group)
	assert.Equal(t, OutcomeNoDriverAvailable, outcome)
	assert.Equal(t, RequestPending, request.Status)
	store.AssertExpectations(t)
}

func TestDispatch_NonStationBoundSkipsGrouping(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	requesterID := uuid.New()

	payload := &CreateRideRequestPayload{
		SourceLatitude:       22.253,
		SourceLongitude:      84.901,
		SourceAddress:        "Hostel Block E",
		DestinationLatitude:  22.260,
		DestinationLongitude: 84.910,
		DestinationAddress:   "Sector 5 Market",
		IsStationBound:       false,
		RequestedTime:        time.Now().UTC().Add(time.Hour),
	}

	store.On("CreateRideRequest", mock.Anything, mock.MatchedBy(func(r *RideRequest) bool {
		return r.RequesterID == requesterID && r.Status == RequestPending && r.PassengerCount == 1
	})).Return(nil).Once()

	result, err := svc.Dispatch(context.Background(), requesterID, payload)

	require.NoError(t, err)
	assert.Nil(t, result.Group)
	assert.Empty(t, result.Outcome)
	assert.Equal(t, RequestPending, result.Request.Status)
	store.AssertNotCalled(t, "FindOpenGroups", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestDispatch_StationBoundRunsGrouping(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())
	requesterID := uuid.New()

	payload := &CreateRideRequestPayload{
		SourceLatitude:       22.253,
		SourceLongitude:      84.901,
		SourceAddress:        "Hostel Block E",
		DestinationLatitude:  22.227,
		DestinationLongitude: 84.858,
		DestinationAddress:   "Rourkela Railway Station",
		IsStationBound:       true,
		RequestedTime:        time.Now().UTC().Add(2 * time.Hour),
		PassengerCount:       2,
	}

	candidate := openGroup(4, 1)
	store.On("CreateRideRequest", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("FindOpenGroups", mock.Anything, payload.DestinationAddress, mock.Anything, mock.Anything).
		Return([]OpenGroup{candidate}, nil).Once()
	store.On("AttachToGroup", mock.Anything, mock.Anything, candidate.ID).
		Return(&candidate.Group, nil).Once()

	result, err := svc.Dispatch(context.Background(), requesterID, payload)

	require.NoError(t, err)
	require.NotNil(t, result.Group)
	assert.Equal(t, OutcomeAddedToExisting, result.Outcome)
	assert.Equal(t, 2, result.Request.PassengerCount)
	store.AssertExpectations(t)
}

func TestCreateRideRequest_RejectsInvalidCoordinates(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())

	payload := &CreateRideRequestPayload{
		SourceLatitude:       95.0,
		SourceLongitude:      84.901,
		SourceAddress:        "nowhere",
		DestinationLatitude:  22.227,
		DestinationLongitude: 84.858,
		DestinationAddress:   "Rourkela Railway Station",
		RequestedTime:        time.Now().UTC(),
	}

	_, err := svc.CreateRideRequest(context.Background(), uuid.New(), payload)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	store.AssertNotCalled(t, "CreateRideRequest", mock.Anything, mock.Anything)
}

func TestGetRideRequest_ForbidsOtherRiders(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil, testGroupingConfig())

	owner := uuid.New()
	other := uuid.New()
	request := testRequest()
	request.RequesterID = owner

	store.On("GetRideRequestByID", mock.Anything, request.ID).Return(request, nil)

	_, err := svc.GetRideRequest(context.Background(), request.ID, other, false)
	require.Error(t, err)

	got, err := svc.GetRideRequest(context.Background(), request.ID, other, true)
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)
}
