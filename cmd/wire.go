package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/adapters/ledger"
	statusadapter "github.com/bnema/nightscout-tidepool-sync/internal/adapters/render/status"
	tomlrepo "github.com/bnema/nightscout-tidepool-sync/internal/adapters/repo/toml"
	chainstore "github.com/bnema/nightscout-tidepool-sync/internal/adapters/secrets/chain"
	mongosource "github.com/bnema/nightscout-tidepool-sync/internal/adapters/source/mongo"
	"github.com/bnema/nightscout-tidepool-sync/internal/adapters/tidepool"
	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/bnema/nightscout-tidepool-sync/internal/config"
	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/logging"
	"github.com/bnema/nightscout-tidepool-sync/internal/metrics"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/bnema/nightscout-tidepool-sync/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

const clientName = "com.github.bnema.nightscout-tidepool-sync"

// sourceStore is a SourceStore holding a connection that must be released.
type sourceStore interface {
	ports.SourceStore
	Close(ctx context.Context) error
}

type wireFunc func(configFile string, stderr io.Writer) (*app, error)

type app struct {
	cfg            config.Config
	log            *logrus.Logger
	closeLog       func() error
	statusRepo     ports.StatusRepository
	secretStore    ports.SecretStore
	metrics        *metrics.Metrics
	remote         ports.RemoteService
	ledger         *ledger.Ledger
	openSource     func(ctx context.Context) (sourceStore, error)
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp(configFile string, stderr io.Writer) (*app, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	cfg, err := config.Load(v, dir, configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, stderr)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire status repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirst(cfg.Secrets.PassDir, cfg.Secrets.Dir)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	baseURL, err := cfg.Tidepool.BaseURL()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		log:         log,
		closeLog:    closeLog,
		statusRepo:  repo,
		secretStore: secretStore,
		metrics:     metrics.New(),
		remote: tidepool.Client{
			API:            tidepool.API{BaseURL: baseURL},
			HTTPClient:     &http.Client{},
			RequestTimeout: cfg.Tidepool.RequestTimeout,
			Identity:       clientIdentity(),
			Limiter:        newLimiter(cfg.Tidepool.RequestsPerSecond),
		},
		ledger: ledger.New(cfg.Sync.LedgerTTL),
		openSource: func(ctx context.Context) (sourceStore, error) {
			store, err := mongosource.Open(ctx, cfg.Nightscout.MongoURI, cfg.Nightscout.Database)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

func clientIdentity() domain.ClientIdentity {
	return domain.ClientIdentity{Name: clientName, Version: version.ClientVersion()}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

func (a *app) credentials(ctx context.Context) (domain.Credentials, error) {
	return application.ResolveCredentials(ctx, a.secretStore,
		a.cfg.Tidepool.Username, a.cfg.Tidepool.Password, a.cfg.Tidepool.PasswordRef)
}

func (a *app) newSessionManager() *application.SessionManager {
	return application.NewSessionManager(a.remote, clientIdentity(), a.log, a.metrics)
}

func (a *app) newSyncService(session *application.SessionManager, source ports.SourceStore, dryRun bool) *application.SyncService {
	return application.NewSyncService(session, source, a.remote, application.SyncConfig{
		EntriesCount:    a.cfg.Sync.EntriesCount,
		TreatmentsCount: a.cfg.Sync.TreatmentsCount,
		ChunkSize:       a.cfg.Sync.ChunkSize,
		UploadAttempts:  a.cfg.Sync.UploadAttempts,
		UploadBackoff:   a.cfg.Sync.UploadBackoff,
		DryRun:          dryRun || a.cfg.Sync.DryRun,
		OriginName:      a.cfg.Sync.OriginName,
	},
		application.WithLedger(a.ledger),
		application.WithStatusRepository(a.statusRepo),
		application.WithLogger(a.log),
		application.WithMetrics(a.metrics),
	)
}

// connect resolves credentials and opens the remote session.
func (a *app) connect(ctx context.Context, session *application.SessionManager) error {
	creds, err := a.credentials(ctx)
	if err != nil {
		return err
	}
	if !session.Connect(ctx, creds).Connected() {
		return fmt.Errorf("connect to tidepool: %w", session.LastError())
	}
	return nil
}
