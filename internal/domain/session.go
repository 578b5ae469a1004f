package domain

import "fmt"

type SessionState string

const (
	SessionConnecting SessionState = "Connecting"
	SessionConnected  SessionState = "Connected"
	SessionFailed     SessionState = "Failed"
)

// Session is the connection to the remote service. Empty strings stand for
// absent values.
type Session struct {
	State          SessionState
	AuthToken      string
	RemoteUserID   string
	UploadTargetID string
}

func (s Session) Connected() bool {
	return s.State == SessionConnected
}

// Validate checks the credential fields against the state.
func (s Session) Validate() error {
	switch s.State {
	case SessionFailed:
		if s.AuthToken != "" || s.RemoteUserID != "" || s.UploadTargetID != "" {
			return fmt.Errorf("failed session still holds credentials")
		}
	case SessionConnected:
		if s.RemoteUserID == "" {
			return fmt.Errorf("connected session has no remote user id")
		}
		if s.UploadTargetID == "" {
			return fmt.Errorf("connected session has no upload target id")
		}
	case SessionConnecting:
		if s.RemoteUserID != "" || s.UploadTargetID != "" {
			return fmt.Errorf("connecting session already holds a user or upload target")
		}
	default:
		return fmt.Errorf("unknown session state %q", s.State)
	}
	return nil
}

// Credentials authenticate against the remote service.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ClientIdentity names this uploader to the remote service.
type ClientIdentity struct {
	Name    string
	Version string
}

type DataSetType string

const DataSetTypeContinuous DataSetType = "continuous"

const DeduplicatorDeleteOrigin = "org.tidepool.deduplicator.dataset.delete.origin"

// UploadTarget is a remote data set records are submitted to.
type UploadTarget struct {
	ID           string
	Client       ClientIdentity
	DataSetType  DataSetType
	Deduplicator string
}

// PasswordSecretKey is where the remote password for username is kept in a
// secret store.
func PasswordSecretKey(username string) string {
	return "nts/tidepool/" + username + "/password"
}
