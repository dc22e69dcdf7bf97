package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/lacework/code-security-action/internal/models"
)

func newTestGitHub(t *testing.T, mux *http.ServeMux) *GitHub {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh, err := NewGitHub("token", srv.URL, "o", "r", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return gh
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Error(err)
	}
}

func TestGitHubComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "100" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		writeJSON(t, w, []map[string]any{{"id": 5, "body": "hello", "html_url": "https://github.com/o/r/pull/7#issuecomment-5"}})
	})
	mux.HandleFunc("POST /repos/o/r/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		writeJSON(t, w, map[string]any{"id": 6, "body": req["body"]})
	})
	mux.HandleFunc("PATCH /repos/o/r/issues/comments/5", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		writeJSON(t, w, map[string]any{"id": 5, "body": req["body"]})
	})

	gh := newTestGitHub(t, mux)
	ctx := context.Background()

	list, err := gh.ListComments(ctx, 7, 2, 100)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	want := []models.Comment{{ID: 5, Body: "hello", URL: "https://github.com/o/r/pull/7#issuecomment-5"}}
	if !slices.Equal(list, want) {
		t.Errorf("ListComments() = %+v", list)
	}

	created, err := gh.CreateComment(ctx, 7, "new")
	if err != nil || created.ID != 6 || created.Body != "new" {
		t.Errorf("CreateComment() = %+v, %v", created, err)
	}

	updated, err := gh.UpdateComment(ctx, 5, "changed")
	if err != nil || updated.ID != 5 || updated.Body != "changed" {
		t.Errorf("UpdateComment() = %+v, %v", updated, err)
	}
}

func TestGitHubPullFilesAndReview(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/pulls/3/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{{"filename": "go.mod", "patch": "@@ -1 +1 @@\n-a\n+b"}})
	})
	var review map[string]any
	mux.HandleFunc("POST /repos/o/r/pulls/3/comments", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			t.Error(err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"id": 1})
	})

	gh := newTestGitHub(t, mux)
	ctx := context.Background()

	files, err := gh.ListPullFiles(ctx, 3)
	if err != nil || len(files) != 1 || files[0].Filename != "go.mod" {
		t.Fatalf("ListPullFiles() = %+v, %v", files, err)
	}

	err = gh.CreateReviewComment(ctx, 3, models.ReviewComment{CommitID: "sha", Path: "go.mod", Position: 3, Body: "fix"})
	if err != nil {
		t.Fatalf("CreateReviewComment() error = %v", err)
	}
	if review["commit_id"] != "sha" || review["path"] != "go.mod" || review["position"] != float64(3) {
		t.Errorf("review request = %v", review)
	}
}

func TestGitHubPulls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "open" {
			t.Errorf("state = %q", r.URL.Query().Get("state"))
		}
		writeJSON(t, w, []map[string]any{
			{"number": 11, "head": map[string]any{"ref": "codesec/sca/main/lodash"}},
		})
	})
	mux.HandleFunc("POST /repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"number": 12})
	})
	mux.HandleFunc("PATCH /repos/o/r/pulls/11", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"number": 11})
	})

	gh := newTestGitHub(t, mux)
	ctx := context.Background()

	n, found, err := gh.FindOpenPull(ctx, "codesec/sca/main/lodash")
	if err != nil || !found || n != 11 {
		t.Errorf("FindOpenPull() = %d, %v, %v", n, found, err)
	}
	if _, found, _ := gh.FindOpenPull(ctx, "other"); found {
		t.Error("FindOpenPull(other) found a pull request")
	}

	n, err = gh.CreatePull(ctx, "codesec/sca/main/x", "main", "title", "body")
	if err != nil || n != 12 {
		t.Errorf("CreatePull() = %d, %v", n, err)
	}
	if err := gh.UpdatePull(ctx, 11, "title", "body"); err != nil {
		t.Errorf("UpdatePull() error = %v", err)
	}
}

func TestGitHubMembersAndKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		var members []map[string]any
		if r.URL.Query().Get("page") == "1" {
			for i := 0; i < 100; i++ {
				members = append(members, map[string]any{"login": fmt.Sprintf("user%d", i)})
			}
		} else {
			members = append(members, map[string]any{"login": "last"})
		}
		writeJSON(t, w, members)
	})
	mux.HandleFunc("GET /users/alice/gpg_keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]any{
			{"key_id": "AAA", "raw_key": "-----BEGIN PGP-----", "can_sign": true},
			{"key_id": "BBB", "raw_key": "old", "can_sign": true, "expires_at": "2020-01-01T00:00:00Z"},
		})
	})

	gh := newTestGitHub(t, mux)
	ctx := context.Background()

	members, err := gh.ListOrgMembers(ctx, "acme")
	if err != nil {
		t.Fatalf("ListOrgMembers() error = %v", err)
	}
	if len(members) != 101 || members[100] != "last" {
		t.Errorf("got %d members", len(members))
	}

	keys, err := gh.ListSigningKeys(ctx, "alice")
	if err != nil || len(keys) != 2 {
		t.Fatalf("ListSigningKeys() = %+v, %v", keys, err)
	}
	if keys[0].KeyID != "AAA" || keys[0].ExpiresAt != nil || !keys[0].CanSign {
		t.Errorf("keys[0] = %+v", keys[0])
	}
	if keys[1].ExpiresAt == nil || keys[1].Usable(time.Now()) {
		t.Errorf("keys[1] should be expired: %+v", keys[1])
	}
}
