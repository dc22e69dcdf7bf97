// Package keys downloads the GPG signing keys of an organisation's members so
// the CLI can verify signed commits.
package keys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lacework/code-security-action/internal/cache"
	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/telemetry"
)

// Dir is the folder the CLI reads trusted keys from
const Dir = "laceworkTrustedKeys"

const (
	cacheNamespace = "lacework-code-security-keys"
	defaultLimit   = 8
)

// API lists organisation members and their published keys
type API interface {
	ListOrgMembers(ctx context.Context, org string) ([]string, error)
	ListSigningKeys(ctx context.Context, user string) ([]models.SigningKey, error)
}

// Downloader writes <key-id>.pub files for every usable member key
type Downloader struct {
	api   API
	cache *cache.Cache
	org   string
	dir   string
	telem *telemetry.Collector
	log   *zap.SugaredLogger
	limit int
	now   func() time.Time
}

// NewDownloader creates a downloader for org writing into dir.
// A nil cache disables the daily cache.
func NewDownloader(api API, c *cache.Cache, org, dir string, telem *telemetry.Collector, log *zap.SugaredLogger) *Downloader {
	if dir == "" {
		dir = Dir
	}
	return &Downloader{
		api:   api,
		cache: c,
		org:   org,
		dir:   dir,
		telem: telem,
		log:   log,
		limit: defaultLimit,
		now:   time.Now,
	}
}

// Download fetches the keys, or restores today's cached copy
func (d *Downloader) Download(ctx context.Context) (err error) {
	started := d.now()
	defer func() {
		d.telem.AddDuration("key-download", started)
		if err != nil {
			d.telem.AddError("key-download-error", err)
		}
	}()

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.dir, err)
	}

	var key string
	if d.cache != nil {
		key = d.cache.DayKey(cacheNamespace)
		hit, err := d.cache.Restore(key, d.dir)
		if err != nil {
			d.log.Warnf("Ignoring trusted keys cache: %v", err)
		}
		if hit {
			d.log.Infof("Restored trusted keys from cache %s", key)
			return nil
		}
	}

	users, err := d.api.ListOrgMembers(ctx, d.org)
	if err != nil {
		return fmt.Errorf("failed to list members of %s: %w", d.org, err)
	}
	d.log.Infof("Downloading trusted keys for %d users", len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit)
	for _, user := range users {
		user := user
		g.Go(func() error {
			return d.downloadUser(gctx, user)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if d.cache != nil {
		if err := d.cache.Save(key, d.dir); err != nil {
			d.log.Warnf("Failed to cache trusted keys: %v", err)
		}
	}

	downloaded, err := d.Downloaded()
	if err != nil {
		return err
	}
	d.log.Infof("Successfully downloaded %d trusted keys: %v", len(downloaded), downloaded)
	return nil
}

func (d *Downloader) downloadUser(ctx context.Context, user string) error {
	keys, err := d.api.ListSigningKeys(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to list keys of %s: %w", user, err)
	}
	now := d.now()
	for _, k := range keys {
		if !k.Usable(now) {
			continue
		}
		path := filepath.Join(d.dir, k.KeyID+".pub")
		if err := os.WriteFile(path, []byte(k.RawKey), 0644); err != nil {
			return fmt.Errorf("failed to write key %s: %w", k.KeyID, err)
		}
	}
	return nil
}

// Downloaded lists the key files present in the key folder
func (d *Downloader) Downloaded() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
