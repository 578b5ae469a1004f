package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports/mocks"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testClient      = domain.ClientIdentity{Name: "com.example.uploader", Version: "1.2.3"}
	testCredentials = domain.Credentials{Username: "user@example.com", Password: "hunter2"}
)

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

func newTestSessionManager(t *testing.T) (*SessionManager, *mocks.MockRemoteService, *logtest.Hook) {
	t.Helper()

	remote := mocks.NewMockRemoteService(t)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewSessionManager(remote, testClient, logger, nil), remote, hook
}

func expectConnect(remote *mocks.MockRemoteService, token string) {
	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{Token: token, UserID: "user-1"}, nil).Once()
	remote.EXPECT().ListUploadTargets(mockAnyContext(), token, "user-1", testClient.Name).
		Return([]domain.UploadTarget{{ID: "ds-1"}, {ID: "ds-2"}}, nil).Once()
}

func TestSessionManagerStartsConnecting(t *testing.T) {
	manager, _, _ := newTestSessionManager(t)

	session := manager.Snapshot()
	assert.Equal(t, domain.Session{State: domain.SessionConnecting}, session)
	require.NoError(t, session.Validate())
	assert.NoError(t, manager.LastError())

	err := manager.WithAuthRetry(context.Background(), func(context.Context, domain.Session) error {
		t.Fatal("call must not run before the session is connected")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestSessionManagerConnectReusesFirstUploadTarget(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)
	expectConnect(remote, "token-1")

	session := manager.Connect(context.Background(), testCredentials)

	assert.Equal(t, domain.Session{
		State:          domain.SessionConnected,
		AuthToken:      "token-1",
		RemoteUserID:   "user-1",
		UploadTargetID: "ds-1",
	}, session)
	require.NoError(t, session.Validate())
	assert.Equal(t, session, manager.Snapshot())
	assert.NoError(t, manager.LastError())
}

func TestSessionManagerConnectCreatesUploadTargetWhenNoneExists(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)

	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{Token: "token-1", UserID: "user-1"}, nil)
	remote.EXPECT().ListUploadTargets(mockAnyContext(), "token-1", "user-1", testClient.Name).Return(nil, nil)
	remote.EXPECT().CreateUploadTarget(mockAnyContext(), "token-1", "user-1", ports.CreateUploadTargetRequest{
		Client:       testClient,
		DataSetType:  domain.DataSetTypeContinuous,
		Deduplicator: domain.DeduplicatorDeleteOrigin,
	}).Return(domain.UploadTarget{ID: "ds-new"}, nil)

	session := manager.Connect(context.Background(), testCredentials)

	assert.Equal(t, domain.SessionConnected, session.State)
	assert.Equal(t, "ds-new", session.UploadTargetID)
}

func TestSessionManagerLoginFailureFailsSession(t *testing.T) {
	manager, remote, hook := newTestSessionManager(t)

	statusErr := &domain.HTTPStatusError{Method: "POST", Endpoint: "/auth/login", Status: 500}
	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{}, statusErr)

	session := manager.Connect(context.Background(), testCredentials)

	assert.Equal(t, domain.Session{State: domain.SessionFailed}, session)
	require.NoError(t, session.Validate())

	var authErr *domain.AuthenticationError
	require.True(t, errors.As(manager.LastError(), &authErr))
	assert.ErrorIs(t, manager.LastError(), statusErr)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "/auth/login", entry.Data["endpoint"])
	assert.Equal(t, 500, entry.Data["status"])
}

func TestSessionManagerTargetResolutionFailureFailsSession(t *testing.T) {
	tests := []struct {
		name  string
		setup func(remote *mocks.MockRemoteService)
	}{
		{
			name: "listing fails",
			setup: func(remote *mocks.MockRemoteService) {
				remote.EXPECT().ListUploadTargets(mockAnyContext(), "token-1", "user-1", testClient.Name).
					Return(nil, &domain.HTTPStatusError{Method: "GET", Endpoint: "/v1/users/user-1/data_sets", Status: 502})
			},
		},
		{
			name: "creation fails",
			setup: func(remote *mocks.MockRemoteService) {
				remote.EXPECT().ListUploadTargets(mockAnyContext(), "token-1", "user-1", testClient.Name).Return([]domain.UploadTarget{}, nil)
				remote.EXPECT().CreateUploadTarget(mockAnyContext(), "token-1", "user-1", mock.Anything).
					Return(domain.UploadTarget{}, errors.New("connection reset"))
			},
		},
		{
			name: "created target has no id",
			setup: func(remote *mocks.MockRemoteService) {
				remote.EXPECT().ListUploadTargets(mockAnyContext(), "token-1", "user-1", testClient.Name).Return(nil, nil)
				remote.EXPECT().CreateUploadTarget(mockAnyContext(), "token-1", "user-1", mock.Anything).Return(domain.UploadTarget{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, remote, _ := newTestSessionManager(t)
			remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{Token: "token-1", UserID: "user-1"}, nil)
			tt.setup(remote)

			session := manager.Connect(context.Background(), testCredentials)

			assert.Equal(t, domain.Session{State: domain.SessionFailed}, session)
			var resolveErr *domain.TargetResolutionError
			assert.True(t, errors.As(manager.LastError(), &resolveErr))
		})
	}
}

func TestSessionManagerConnectRejectsIncompleteCredentials(t *testing.T) {
	manager, _, _ := newTestSessionManager(t)

	session := manager.Connect(context.Background(), domain.Credentials{Username: "user@example.com"})

	assert.Equal(t, domain.SessionFailed, session.State)
	assert.ErrorContains(t, manager.LastError(), "password is required")
}

func TestSessionManagerReconnectAfterFailure(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)

	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{}, errors.New("timeout")).Once()
	require.Equal(t, domain.SessionFailed, manager.Connect(context.Background(), testCredentials).State)

	expectConnect(remote, "token-2")
	session := manager.Connect(context.Background(), testCredentials)

	assert.Equal(t, domain.SessionConnected, session.State)
	assert.NoError(t, manager.LastError())
}

func TestSessionManagerWithAuthRetryRequiresConnection(t *testing.T) {
	manager, _, _ := newTestSessionManager(t)

	called := false
	err := manager.WithAuthRetry(context.Background(), func(context.Context, domain.Session) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrNotConnected)
	assert.False(t, called)
}

func TestSessionManagerWithAuthRetryPassesThroughOtherErrors(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)
	expectConnect(remote, "token-1")
	manager.Connect(context.Background(), testCredentials)

	calls := 0
	callErr := &domain.HTTPStatusError{Method: "POST", Endpoint: "/data", Status: 500}
	err := manager.WithAuthRetry(context.Background(), func(context.Context, domain.Session) error {
		calls++
		return callErr
	})

	require.ErrorIs(t, err, callErr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.SessionConnected, manager.Snapshot().State)
}

func TestSessionManagerWithAuthRetryReplaysOnceWithFreshToken(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)
	expectConnect(remote, "token-1")
	manager.Connect(context.Background(), testCredentials)

	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{Token: "token-2", UserID: "user-1"}, nil).Once()

	var tokens []string
	err := manager.WithAuthRetry(context.Background(), func(_ context.Context, session domain.Session) error {
		tokens = append(tokens, session.AuthToken)
		if len(tokens) == 1 {
			return fmt.Errorf("upload: %w", domain.ErrTransientAuth)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"token-1", "token-2"}, tokens)

	session := manager.Snapshot()
	assert.Equal(t, domain.SessionConnected, session.State)
	assert.Equal(t, "token-2", session.AuthToken)
	assert.Equal(t, "ds-1", session.UploadTargetID)
}

func TestSessionManagerWithAuthRetryFailsSessionOnSecondRejection(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)
	expectConnect(remote, "token-1")
	manager.Connect(context.Background(), testCredentials)

	remote.EXPECT().Login(mockAnyContext(), testCredentials).Return(ports.LoginResult{Token: "token-2", UserID: "user-1"}, nil).Once()

	calls := 0
	err := manager.WithAuthRetry(context.Background(), func(context.Context, domain.Session) error {
		calls++
		return fmt.Errorf("upload: %w", domain.ErrTransientAuth)
	})

	var authErr *domain.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, domain.ErrTransientAuth)
	assert.Equal(t, 2, calls)
	assert.Equal(t, domain.Session{State: domain.SessionFailed}, manager.Snapshot())
}

func TestSessionManagerWithAuthRetryFailsSessionWhenReloginFails(t *testing.T) {
	manager, remote, _ := newTestSessionManager(t)
	expectConnect(remote, "token-1")
	manager.Connect(context.Background(), testCredentials)

	remote.EXPECT().Login(mockAnyContext(), testCredentials).
		Return(ports.LoginResult{}, &domain.HTTPStatusError{Method: "POST", Endpoint: "/auth/login", Status: 401}).Once()

	calls := 0
	err := manager.WithAuthRetry(context.Background(), func(context.Context, domain.Session) error {
		calls++
		return domain.ErrTransientAuth
	})

	var authErr *domain.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.SessionFailed, manager.Snapshot().State)
}
