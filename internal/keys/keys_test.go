package keys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lacework/code-security-action/internal/cache"
	"github.com/lacework/code-security-action/internal/models"
	"github.com/lacework/code-security-action/internal/telemetry"
)

type fakeAPI struct {
	mu          sync.Mutex
	members     []string
	keys        map[string][]models.SigningKey
	memberCalls int
	keyCalls    int
	failUser    string
}

func (f *fakeAPI) ListOrgMembers(ctx context.Context, org string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	return f.members, nil
}

func (f *fakeAPI) ListSigningKeys(ctx context.Context, user string) ([]models.SigningKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyCalls++
	if user == f.failUser {
		return nil, errors.New("not found")
	}
	return f.keys[user], nil
}

func newAPI() *fakeAPI {
	past := time.Now().Add(-time.Hour)
	return &fakeAPI{
		members: []string{"alice", "bob"},
		keys: map[string][]models.SigningKey{
			"alice": {
				{KeyID: "A1", RawKey: "alice-key", CanSign: true},
				{KeyID: "A2", RawKey: "alice-expired", CanSign: true, ExpiresAt: &past},
			},
			"bob": {
				{KeyID: "B1", RawKey: "bob-key", CanSign: false},
				{KeyID: "B2", RawKey: "bob-signing", CanSign: true},
			},
		},
	}
}

func TestDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), Dir)
	telem := telemetry.NewCollector()
	d := NewDownloader(newAPI(), nil, "acme", dir, telem, zap.NewNop().Sugar())

	if err := d.Download(context.Background()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	got, err := d.Downloaded()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"A1.pub", "B2.pub"}) {
		t.Errorf("Downloaded() = %v", got)
	}
	data, err := os.ReadFile(filepath.Join(dir, "A1.pub"))
	if err != nil || string(data) != "alice-key" {
		t.Errorf("A1.pub = %q, %v", data, err)
	}
	if _, ok := telem.Fields()["duration.key-download"]; !ok {
		t.Error("duration.key-download was not recorded")
	}
}

func TestDownloadUsesDailyCache(t *testing.T) {
	c, err := cache.New(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	first := newAPI()
	d := NewDownloader(first, c, "acme", filepath.Join(t.TempDir(), Dir), telemetry.NewCollector(), zap.NewNop().Sugar())
	if err := d.Download(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := newAPI()
	dir := filepath.Join(t.TempDir(), Dir)
	d = NewDownloader(second, c, "acme", dir, telemetry.NewCollector(), zap.NewNop().Sugar())
	if err := d.Download(context.Background()); err != nil {
		t.Fatal(err)
	}

	if second.memberCalls != 0 || second.keyCalls != 0 {
		t.Errorf("cache hit still called the API: %d member, %d key calls", second.memberCalls, second.keyCalls)
	}
	if got, _ := d.Downloaded(); !slices.Equal(got, []string{"A1.pub", "B2.pub"}) {
		t.Errorf("restored keys = %v", got)
	}
}

func TestDownloadRecordsErrors(t *testing.T) {
	api := newAPI()
	api.failUser = "bob"
	telem := telemetry.NewCollector()
	d := NewDownloader(api, nil, "acme", filepath.Join(t.TempDir(), Dir), telem, zap.NewNop().Sugar())

	if err := d.Download(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if telem.Fields()["error.key-download-error"] == "" {
		t.Errorf("fields = %v", telem.Fields())
	}
}
