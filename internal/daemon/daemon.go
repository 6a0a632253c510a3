// Package daemon wires the stores, engine, and HTTP surfaces together
// and runs the server until its context is canceled.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/httpapi"
	"github.com/Nhor/static-files-manager/internal/session"
	"github.com/Nhor/static-files-manager/internal/storage"
	"github.com/Nhor/static-files-manager/internal/user"
	"github.com/Nhor/static-files-manager/internal/webdavserver"
)

type Options struct {
	DBPath      string
	StorageRoot string
	TmpDir      string

	BindAddr       string
	Port           int
	MaxUploadBytes int64
	AllowedOrigins []string

	SessionType  string
	SessionRealm string

	WebDAVEnable bool
	WebDAVPrefix string

	Logger *slog.Logger
}

func Run(ctx context.Context, opt Options) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.StorageRoot == "" || opt.TmpDir == "" {
		return errors.New("storage root and tmp dir are required")
	}
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}

	// The managed tree and the upload staging area must exist before
	// the first request; uploads rename across the two, so they should
	// live on the same filesystem.
	if err := os.MkdirAll(opt.StorageRoot, 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(opt.TmpDir, 0o700); err != nil {
		return err
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()

	users := user.NewService(d)
	sessions := session.NewStore(d)
	engine := storage.New(opt.StorageRoot)

	api := &httpapi.Server{
		Users:    users,
		Sessions: sessions,
		Engine:   engine,
		SessionConfig: session.Config{
			Type:  opt.SessionType,
			Realm: opt.SessionRealm,
		},
		TmpDir:         opt.TmpDir,
		MaxUploadBytes: opt.MaxUploadBytes,
		AllowedOrigins: opt.AllowedOrigins,
		Logger:         lg,
	}

	var handler http.Handler = api.Handler()
	if opt.WebDAVEnable {
		prefix := strings.TrimSuffix(opt.WebDAVPrefix, "/")
		dav := &webdavserver.Handler{
			Users:  users,
			Root:   opt.StorageRoot,
			Prefix: prefix,
			Logger: lg,
		}
		mux := http.NewServeMux()
		mux.Handle(prefix+"/", dav)
		mux.Handle(prefix, dav)
		mux.Handle("/", handler)
		handler = mux
	}

	addr := opt.BindAddr + ":" + strconv.Itoa(opt.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	lg.Info("listening", "addr", addr, "storage_root", opt.StorageRoot)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
