package conf

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/kvdb"
	"github.com/zeptools/gw-docgen/db/sqldb"
	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/render"
	"github.com/zeptools/gw-docgen/schedjobs"
	"github.com/zeptools/gw-docgen/share"
	"github.com/zeptools/gw-docgen/svc"
	"github.com/zeptools/gw-docgen/throttle"
	"github.com/zeptools/gw-docgen/uds"
	"github.com/zeptools/gw-docgen/web"
)

// Core - common config, loaded from <app_root>/config/.core.json
type Core struct {
	AppName         string       `json:"app_name"`
	Listen          string       `json:"listen"`            // HTTP Server Listen IP:PORT Address
	Host            string       `json:"host"`              // Public base URL, e.g. https://docs.example.com. Used for share links
	RenderEngine    string       `json:"render_engine"`     // native | html
	PaperSize       string       `json:"paper_size"`        // A4 | Letter
	Storage         string       `json:"storage"`           // memory | kv | sql
	SQLDB           string       `json:"sql_db"`            // name in .sql-databases.json when storage is sql
	Retention       string       `json:"retention"`         // how long generated documents are kept, e.g. "720h"
	ShareTTL        string       `json:"share_ttl"`         // share link lifetime, e.g. "168h"
	ShareSecret     string       `json:"share_secret"`      // HS256 key for share links, >= 16 bytes
	CacheKey        string       `json:"cache_key"`         // base64 32-byte key sealing documents in kv storage. Optional
	AdminSocket     string       `json:"admin_socket"`      // unix socket path. Optional
	ChromePath      string       `json:"chrome_path"`       // html engine only
	ChromeNoSandbox bool         `json:"chrome_no_sandbox"` // html engine only, e.g. in containers
	EmbedQR         bool         `json:"embed_qr"`          // print a QR code of the share link on generated documents
	Throttle        ThrottleConf `json:"throttle"`
	DebugOpts       DebugOpts    `json:"debug_opts"` // Debug Options

	AppRoot             string                            `json:"-"` // Filled from --root
	RootCtx             context.Context                   `json:"-"` // Global Context with RootCancel
	RootCancel          context.CancelFunc                `json:"-"` // CancelFunc for RootCtx
	Logger              *zap.Logger                       `json:"-"`
	UDSService          *uds.Service                      `json:"-"` // PrepareUDSService
	JobScheduler        *schedjobs.Scheduler              `json:"-"` // PrepareJobScheduler
	WebService          *web.Service                      `json:"-"` // PrepareWebService
	ThrottleBucketStore *throttle.BucketStore[string]     `json:"-"` // PrepareThrottleBucketStore
	ActionLocks         *sync.Map                         `json:"-"` // map[string]struct{}
	KVDBConf            kvdb.Conf                         `json:"-"` // loadKVDBConf
	BackendKVDBClient   kvdb.Client                       `json:"-"` // prepareKVDBClient
	SQLDBConfs          map[string]*sqldb.Conf            `json:"-"` // loadSQLDBConfs
	BackendSQLDBClients map[string]sqldb.Client           `json:"-"` // prepareSQLDBClients
	Company             atomic.Pointer[documents.Company] `json:"-"` // [Hot Reload] PrepareCompany
	DocStore            docstore.Store                    `json:"-"` // PrepareDocStore
	Renderer            render.Renderer                   `json:"-"` // PrepareRenderer
	ShareTokens         *share.Tokens                     `json:"-"` // PrepareShareTokens
	signalStop          func()

	retention       time.Duration
	shareTTL        time.Duration
	paper           pdfs.PaperSize
	ephemeralSecret bool

	services []svc.Service // Services to Manage
	done     chan error
}

type DebugOpts struct {
	Verbose bool `json:"verbose"` // debug level logging
}

// ConfigPath returns <app_root>/config/<name>
func (c *Core) ConfigPath(name string) string {
	return filepath.Join(c.AppRoot, "config", name)
}

// Load reads .core.json, applies defaults and env overrides and validates. No side effects
func Load(appRoot string) (*Core, error) {
	c := &Core{AppRoot: appRoot}
	data, err := os.ReadFile(c.ConfigPath(".core.json"))
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf(".core.json: %w", err)
	}
	c.setDefaults()
	c.applyEnvOverrides()
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// BaseInit - 1st step for initialization
// 1. load config/.core.json file
// 2. build the logger
// 3. prepare base fields
// 4. Start ShutdownSignalListener
func BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc, verbose bool) (*Core, error) {
	c, err := Load(appRoot)
	if err != nil {
		return nil, err
	}
	if c.Logger, err = NewLogger(verbose || c.DebugOpts.Verbose); err != nil {
		return nil, err
	}
	if c.ephemeralSecret {
		c.Logger.Warn("share_secret not set; share links will not survive a restart")
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.prepareDefaultFeatures()
	c.startShutdownSignalListener()
	return c, nil
}

func (c *Core) prepareDefaultFeatures() {
	c.ActionLocks = &sync.Map{}
}

func (c *Core) RetentionDuration() time.Duration {
	return c.retention
}

func (c *Core) ShareTTLDuration() time.Duration {
	return c.shareTTL
}

func (c *Core) AddService(s svc.Service) {
	c.services = append(c.services, s)
	c.Logger.Info("service added", zap.String("service", s.Name()), zap.Int("total", len(c.services)))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		if err := s.Start(); err != nil {
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
		go func() {
			err := <-s.Done()
			if err != nil {
				c.Logger.Error("service ended with error", zap.String("service", s.Name()), zap.Error(err))
			}
			c.done <- err
		}()
	}
	return nil
}

// WaitServicesDone returns when every service ended, or on the first error
func (c *Core) WaitServicesDone() error {
	for range c.services {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

func (c *Core) startShutdownSignalListener() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	c.signalStop = func() { signal.Stop(sigs) }
	go func() {
		select {
		case sig := <-sigs:
			c.Logger.Info("got signal. shutting down", zap.String("signal", sig.String()), zap.String("app", c.AppName))
			c.RootCancel() // broadcast to all child services via Context.Done()
		case <-c.RootCtx.Done():
		}
		signal.Stop(sigs)
	}()
	c.Logger.Debug("shutdown signal listener started")
}

func (c *Core) PrepareJobScheduler() {
	c.JobScheduler = schedjobs.NewScheduler(c.RootCtx, c.Logger)
	c.AddService(c.JobScheduler)
}

func (c *Core) PrepareUDSService(commands uds.CommandStore) {
	c.UDSService = uds.NewService(c.RootCtx, c.AdminSocket, commands, c.Logger)
	c.AddService(c.UDSService)
}

func (c *Core) PrepareWebService(router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, c.Listen, router, c.Logger)
	c.AddService(c.WebService)
}

// PrepareThrottleBucketStore registers the "post" bucket group from the throttle config
func (c *Core) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) error {
	bc, err := c.Throttle.BucketConf()
	if err != nil {
		return err
	}
	c.ThrottleBucketStore = throttle.NewBucketStore[string](c.RootCtx, cleanupCycle, cleanupOlderThan, c.Logger)
	c.ThrottleBucketStore.SetBucketGroup(ThrottleGroupPost, &bc)
	c.AddService(c.ThrottleBucketStore)
	return nil
}

func (c *Core) PrepareShareTokens() {
	c.ShareTokens = share.NewTokens([]byte(c.ShareSecret), c.shareTTL, c.AppName)
}

func (c *Core) PrepareRenderer() error {
	r, err := render.New(c.RenderEngine, render.Config{
		Creator:    c.AppName,
		ChromePath: c.ChromePath,
		NoSandbox:  c.ChromeNoSandbox,
		Timeout:    30 * time.Second,
		Paper:      c.paper,
	}, c.Logger)
	if err != nil {
		return err
	}
	c.Renderer = r
	c.Logger.Info("renderer ready", zap.String("engine", r.Name()), zap.String("paper", c.paper.Name))
	return nil
}

func (c *Core) ResourceCleanUp() {
	c.Logger.Info("app resource cleaning up")
	if c.signalStop != nil {
		c.signalStop()
	}
	if c.Renderer != nil {
		if err := c.Renderer.Close(); err != nil {
			c.Logger.Warn("failed to close renderer", zap.Error(err))
		}
	}
	if c.DocStore != nil {
		if err := c.DocStore.Close(); err != nil {
			c.Logger.Warn("failed to close docstore", zap.Error(err))
		}
	}
	c.closeDBClients()
	c.Logger.Info("app resource cleanup complete")
	_ = c.Logger.Sync()
}
