package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/sirupsen/logrus"
)

// SessionManager exclusively owns the remote session. Other components read
// it through Snapshot or act on it through WithAuthRetry.
type SessionManager struct {
	remote  ports.RemoteService
	client  domain.ClientIdentity
	log     logrus.FieldLogger
	metrics ports.SyncMetrics

	// connectMu serializes login round trips: Connect and token refresh.
	connectMu sync.Mutex

	mu          sync.RWMutex
	session     domain.Session
	credentials domain.Credentials
	lastErr     error
}

func NewSessionManager(remote ports.RemoteService, client domain.ClientIdentity, log logrus.FieldLogger, metrics ports.SyncMetrics) *SessionManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &SessionManager{
		remote:  remote,
		client:  client,
		log:     log.WithField("component", "session"),
		metrics: metrics,
		session: domain.Session{State: domain.SessionConnecting},
	}
}

func (m *SessionManager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// LastError is the failure that put the session into Failed, if any.
func (m *SessionManager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *SessionManager) Client() domain.ClientIdentity {
	return m.client
}

// Connect logs in and resolves the upload target. Failures are recorded in
// the returned session and in LastError rather than returned.
func (m *SessionManager) Connect(ctx context.Context, credentials domain.Credentials) domain.Session {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	m.credentials = credentials
	m.lastErr = nil
	m.setLocked(domain.Session{State: domain.SessionConnecting})
	m.mu.Unlock()

	if err := credentials.Validate(); err != nil {
		return m.fail(&domain.AuthenticationError{Err: err})
	}

	login, err := m.remote.Login(ctx, credentials)
	if err != nil {
		return m.fail(&domain.AuthenticationError{Err: err})
	}

	targetID, err := m.ResolveUploadTarget(ctx, login.Token, login.UserID, m.client)
	if err != nil {
		return m.fail(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(domain.Session{
		State:          domain.SessionConnected,
		AuthToken:      login.Token,
		RemoteUserID:   login.UserID,
		UploadTargetID: targetID,
	})
	m.log.WithFields(logrus.Fields{
		"user_id":          login.UserID,
		"upload_target_id": targetID,
	}).Info("connected to remote service")

	return m.session
}

// ResolveUploadTarget returns the first upload target registered for client,
// creating one when there is none.
func (m *SessionManager) ResolveUploadTarget(ctx context.Context, token, userID string, client domain.ClientIdentity) (string, error) {
	targets, err := m.remote.ListUploadTargets(ctx, token, userID, client.Name)
	if err != nil {
		return "", &domain.TargetResolutionError{Err: fmt.Errorf("list upload targets: %w", err)}
	}
	for _, target := range targets {
		if target.ID != "" {
			m.log.WithField("upload_target_id", target.ID).Debug("reusing upload target")
			return target.ID, nil
		}
	}

	created, err := m.remote.CreateUploadTarget(ctx, token, userID, ports.CreateUploadTargetRequest{
		Client:       client,
		DataSetType:  domain.DataSetTypeContinuous,
		Deduplicator: domain.DeduplicatorDeleteOrigin,
	})
	if err != nil {
		return "", &domain.TargetResolutionError{Err: fmt.Errorf("create upload target: %w", err)}
	}
	if created.ID == "" {
		return "", &domain.TargetResolutionError{Err: errors.New("created upload target has no id")}
	}

	m.log.WithField("upload_target_id", created.ID).Info("created upload target")
	return created.ID, nil
}

// WithAuthRetry runs call against the current session. A rejection by the
// remote service triggers one re-login and one replay; a second rejection
// fails the session.
func (m *SessionManager) WithAuthRetry(ctx context.Context, call func(ctx context.Context, session domain.Session) error) error {
	session := m.Snapshot()
	if !session.Connected() {
		return domain.ErrNotConnected
	}

	err := call(ctx, session)
	if !errors.Is(err, domain.ErrTransientAuth) {
		return err
	}
	m.log.WithError(err).Warn("remote service rejected session, logging in again")

	refreshed, refreshErr := m.refresh(ctx, session)
	if refreshErr != nil {
		m.fail(refreshErr)
		return refreshErr
	}

	err = call(ctx, refreshed)
	if errors.Is(err, domain.ErrTransientAuth) {
		authErr := &domain.AuthenticationError{Err: err}
		m.fail(authErr)
		return authErr
	}
	return err
}

func (m *SessionManager) refresh(ctx context.Context, stale domain.Session) (domain.Session, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.RLock()
	current := m.session
	credentials := m.credentials
	m.mu.RUnlock()

	if !current.Connected() {
		return domain.Session{}, &domain.AuthenticationError{Err: domain.ErrNotConnected}
	}
	// Another caller already refreshed the token.
	if current.AuthToken != stale.AuthToken {
		return current, nil
	}

	login, err := m.remote.Login(ctx, credentials)
	if err != nil {
		return domain.Session{}, &domain.AuthenticationError{Err: err}
	}
	if login.UserID != "" && login.UserID != current.RemoteUserID {
		return domain.Session{}, &domain.AuthenticationError{
			Err: fmt.Errorf("login returned user %q, session belongs to %q", login.UserID, current.RemoteUserID),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.AuthToken = login.Token
	m.log.Info("session token refreshed")
	return m.session, nil
}

func (m *SessionManager) fail(err error) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastErr = err
	m.setLocked(domain.Session{State: domain.SessionFailed})

	entry := m.log.WithError(err)
	var statusErr *domain.HTTPStatusError
	if errors.As(err, &statusErr) {
		entry = entry.WithFields(logrus.Fields{
			"method":   statusErr.Method,
			"endpoint": statusErr.Endpoint,
			"status":   statusErr.Status,
		})
	}
	entry.Error("remote session failed")

	return m.session
}

func (m *SessionManager) setLocked(session domain.Session) {
	m.session = session
	m.metrics.SessionState(session.State)
}
