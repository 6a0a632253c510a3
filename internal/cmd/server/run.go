package server

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nhor/static-files-manager/internal/config"
	"github.com/Nhor/static-files-manager/internal/daemon"
	"github.com/Nhor/static-files-manager/internal/logging"
	"github.com/Nhor/static-files-manager/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string

	DBPath         string
	StorageRoot    string
	TmpDir         string
	BindAddr       string
	Port           int
	MaxUploadMB    int
	AllowedOrigins string
	SessionType    string
	SessionRealm   string
	WebDAVEnable   bool
	WebDAVPrefix   string
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	def := config.Default()
	fs.StringVar(&opt.ConfigPath, "config", "", "path to static-files-manager.yaml (when set, other flags are ignored)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&opt.LogLevel, "log-level", def.Log.Level, "log level: debug|info|warning|error")
	fs.StringVar(&opt.DBPath, "db", def.DB.Path, "sqlite database path")
	fs.StringVar(&opt.StorageRoot, "root", def.Storage.Root, "storage root directory")
	fs.StringVar(&opt.TmpDir, "tmp-dir", def.Storage.TmpDir, "upload staging directory")
	fs.StringVar(&opt.BindAddr, "bind", def.HTTP.Bind, "bind address")
	fs.IntVar(&opt.Port, "port", def.HTTP.Port, "HTTP port")
	fs.IntVar(&opt.MaxUploadMB, "max-upload-mb", def.HTTP.MaxUploadMB, "maximum upload size in MB")
	fs.StringVar(&opt.AllowedOrigins, "allowed-origins", "", "comma-separated CORS origins ('*' allows any, empty disables)")
	fs.StringVar(&opt.SessionType, "session-type", def.Session.Type, "session identifier type component")
	fs.StringVar(&opt.SessionRealm, "session-realm", def.Session.Realm, "session identifier realm component")
	fs.BoolVar(&opt.WebDAVEnable, "webdav-enable", false, "enable WebDAV access to the storage root")
	fs.StringVar(&opt.WebDAVPrefix, "webdav-prefix", def.WebDAV.Prefix, "WebDAV URL prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("static-files-manager server %s\n", version.Version)
		return nil
	}

	if opt.ConfigPath != "" {
		c, err := config.Load(opt.ConfigPath)
		if err != nil {
			return err
		}
		base := filepath.Dir(opt.ConfigPath)
		lg, err := logging.New(logging.Options{Level: c.Log.Level, JSON: c.Log.JSON, DefaultSlog: true})
		if err != nil {
			return err
		}
		return daemon.Run(context.Background(), daemon.Options{
			DBPath:         resolvePath(base, c.DB.Path),
			StorageRoot:    resolvePath(base, c.Storage.Root),
			TmpDir:         resolvePath(base, c.Storage.TmpDir),
			BindAddr:       c.HTTP.Bind,
			Port:           c.HTTP.Port,
			MaxUploadBytes: int64(c.HTTP.MaxUploadMB) << 20,
			AllowedOrigins: c.HTTP.AllowedOrigins,
			SessionType:    c.Session.Type,
			SessionRealm:   c.Session.Realm,
			WebDAVEnable:   c.WebDAV.Enable,
			WebDAVPrefix:   c.WebDAV.Prefix,
			Logger:         lg,
		})
	}

	lg, err := logging.New(logging.Options{Level: opt.LogLevel, DefaultSlog: true})
	if err != nil {
		return err
	}
	return daemon.Run(context.Background(), daemon.Options{
		DBPath:         opt.DBPath,
		StorageRoot:    opt.StorageRoot,
		TmpDir:         opt.TmpDir,
		BindAddr:       opt.BindAddr,
		Port:           opt.Port,
		MaxUploadBytes: int64(opt.MaxUploadMB) << 20,
		AllowedOrigins: splitOrigins(opt.AllowedOrigins),
		SessionType:    opt.SessionType,
		SessionRealm:   opt.SessionRealm,
		WebDAVEnable:   opt.WebDAVEnable,
		WebDAVPrefix:   opt.WebDAVPrefix,
		Logger:         lg,
	})
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
