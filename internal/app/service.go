package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dotagents/internal/adapter"
	"dotagents/internal/audit"
	"dotagents/internal/config"
	"dotagents/internal/deploy"
	"dotagents/internal/doctor"
	"dotagents/internal/resolver"
	"dotagents/internal/scaffold"
	"dotagents/internal/store"
	"dotagents/internal/templates"
)

// ErrNoWorkspace is returned by operations that need an initialized
// application directory.
var ErrNoWorkspace = errors.New("no .dotagents directory found")

type Options struct {
	// WorkspaceRoot pins the workspace. Empty means the nearest ancestor of
	// the working directory that holds a .dotagents directory, or the
	// working directory itself when none does.
	WorkspaceRoot string
	// Home overrides where installed tools are detected.
	Home   string
	Logger *slog.Logger
}

type Service struct {
	WorkspaceRoot string
	CacheRoot     string
	Logger        *slog.Logger
	Doctor        *doctor.Service

	home string
}

func New(opts Options) (*Service, error) {
	root := opts.WorkspaceRoot
	if root != "" {
		expanded, err := config.ExpandPath(root)
		if err != nil {
			return nil, err
		}
		root, err = filepath.Abs(expanded)
		if err != nil {
			return nil, err
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if found, ok := config.FindWorkspaceRoot(cwd); ok {
			root = found
		} else {
			root = cwd
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		WorkspaceRoot: root,
		CacheRoot:     config.CacheRoot(root),
		Logger:        logger,
		Doctor:        &doctor.Service{WorkspaceRoot: root, Home: opts.Home},
		home:          opts.Home,
	}, nil
}

// Initialized reports whether the workspace has an application directory.
func (s *Service) Initialized() bool {
	stat, err := os.Stat(config.ApplicationDir(s.WorkspaceRoot))
	return err == nil && stat.IsDir()
}

func (s *Service) requireWorkspace() error {
	if !s.Initialized() {
		return fmt.Errorf("APP_WORKSPACE: %s: %w (run init first)", s.WorkspaceRoot, ErrNoWorkspace)
	}
	return nil
}

// Detect lists the installed tools.
func (s *Service) Detect() []adapter.Detection {
	if s.home != "" {
		return adapter.DetectIn(s.home)
	}
	return adapter.DetectAvailable()
}

// Init seeds the application directory. With detect set, installed tools are
// added to the seeded targets.
func (s *Service) Init(opts scaffold.Options, detect bool) (scaffold.Result, error) {
	if detect {
		opts.Detected = s.Detect()
		for _, d := range opts.Detected {
			s.Logger.Info("detected tool", "name", d.Name, "category", d.Category, "path", d.Path)
		}
	}
	res, err := scaffold.Init(s.WorkspaceRoot, opts)
	if err != nil {
		return scaffold.Result{}, err
	}
	s.Logger.Info("initialized workspace", "dir", res.ApplicationDir, "files", len(res.Files))
	return res, nil
}

func (s *Service) templater() (*templates.Templater, error) {
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	return templates.ForWorkspace(s.WorkspaceRoot)
}

// Resolve renders, validates and merges both configuration layers.
func (s *Service) Resolve() (resolver.Result, error) {
	tpl, err := s.templater()
	if err != nil {
		return resolver.Result{}, err
	}
	res, err := resolver.Resolve(tpl)
	if err != nil {
		return resolver.Result{}, err
	}
	s.Logger.Debug("resolved configuration", "features", res.Effective.Features)
	return res, nil
}

// Validate resolves the configuration and discards the result.
func (s *Service) Validate() error {
	_, err := s.Resolve()
	return err
}

// Deploy resolves the configuration and runs a deploy pass.
func (s *Service) Deploy(ctx context.Context, opts deploy.Options) (deploy.Report, error) {
	tpl, err := s.templater()
	if err != nil {
		return deploy.Report{}, err
	}
	res, err := resolver.Resolve(tpl)
	if err != nil {
		return deploy.Report{}, err
	}
	var logger *audit.Logger
	if !opts.DryRun {
		logger = audit.New(store.AuditPath(s.CacheRoot))
	}
	svc := &deploy.Service{
		WorkspaceRoot: s.WorkspaceRoot,
		Templater:     tpl,
		Audit:         logger,
		Logger:        s.Logger,
	}
	return svc.Run(ctx, res.Effective, opts)
}

// Check is a dry-run deploy; the report's drift tells whether a deploy
// would write anything.
func (s *Service) Check(ctx context.Context) (deploy.Report, error) {
	return s.Deploy(ctx, deploy.Options{DryRun: true})
}

// RunDoctor inspects the workspace.
func (s *Service) RunDoctor(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}

// PrintConfig returns the effective configuration and the cache projection
// of a deploy pass, both as TOML. A dry run's projection is the one that
// would have been saved.
func (s *Service) PrintConfig(report deploy.Report) (string, error) {
	effective, err := config.Marshal(report.Effective)
	if err != nil {
		return "", err
	}
	cached, err := config.Marshal(report.Cache)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	b.WriteString("# effective configuration\n")
	b.Write(effective)
	b.WriteString("\n# cache projection (")
	b.WriteString(store.CachePath(s.CacheRoot))
	if report.DryRun {
		b.WriteString(", not saved")
	}
	b.WriteString(")\n")
	b.Write(cached)
	return b.String(), nil
}
