// Package adduser provisions user accounts from the command line;
// the API itself has no signup surface.
package adduser

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nhor/static-files-manager/internal/config"
	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/user"
	"github.com/Nhor/static-files-manager/internal/validate"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	var configPath, dbPath, username, password string
	def := config.Default()
	fs.StringVar(&configPath, "config", "", "path to static-files-manager.yaml")
	fs.StringVar(&dbPath, "db", def.DB.Path, "sqlite database path (ignored when -config is set)")
	fs.StringVar(&username, "username", "", "username for the new account")
	fs.StringVar(&password, "password", "", "password for the new account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dbPath = c.DB.Path
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(filepath.Dir(configPath), dbPath)
		}
	}

	username = strings.TrimSpace(username)
	if !validate.Username(username) {
		return errors.New("invalid username: 2-16 chars of [0-9A-Za-z-_] with at least one letter")
	}
	if !validate.Password(password) {
		return errors.New("invalid password: 6-32 allowed chars with at least one letter and one digit")
	}

	ctx := context.Background()
	d, err := db.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer d.Close()

	id, err := user.NewService(d).Create(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Printf("created user %q (id %d)\n", username, id)
	return nil
}
