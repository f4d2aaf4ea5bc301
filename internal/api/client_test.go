package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/logging"
	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/progress"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	cfg := config.Default()
	cfg.BaseURL = serverURL + "/api"
	cfg.ClientID = "uploader"
	cfg.ClientSecret = "secret"
	cfg.Username = "admin"
	cfg.Password = "password1"

	client, err := NewClient(cfg, logging.NewCLILogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.Progress = progress.NewNoOpProgress()
	return client
}

func TestConnectStoresToken(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/oauth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.PostForm.Get("username"); got != "admin" {
			t.Errorf("username = %q, want admin", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"token_type":   "bearer",
			"expires_in":   43200,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client.accessToken != "tok-123" {
		t.Errorf("accessToken = %q, want tok-123", client.accessToken)
	}
}

func TestConnectInvalidCredentials(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Connect(context.Background())
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Connect error = %v, want ErrInvalidCredentials", err)
	}
	if IsConnectionError(err) {
		t.Error("credential rejection should not classify as a connection error")
	}
}

func TestProjectExists(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/api/projects/5":
			fmt.Fprint(w, `{"resource":{"identifier":"5"}}`)
		case "/api/projects/99":
			w.WriteHeader(nethttp.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.accessToken = "tok"

	exists, err := client.ProjectExists(context.Background(), "5")
	if err != nil || !exists {
		t.Errorf("ProjectExists(5) = %v, %v; want true, nil", exists, err)
	}

	exists, err = client.ProjectExists(context.Background(), "99")
	if err != nil || exists {
		t.Errorf("ProjectExists(99) = %v, %v; want false, nil", exists, err)
	}
}

func TestValidateRunUploadable(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/api/projects/7" {
			fmt.Fprint(w, `{}`)
			return
		}
		w.WriteHeader(nethttp.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.accessToken = "tok"

	run := &model.SequencingRun{
		Projects: []model.Project{
			{ID: "7"},
			{ID: "404"},
		},
	}

	result, err := client.ValidateRunUploadable(context.Background(), run)
	if err != nil {
		t.Fatalf("ValidateRunUploadable: %v", err)
	}
	if result.IsValid() {
		t.Fatal("run referencing a missing project should not validate")
	}
	if got := result.ErrorCount(); got != 1 {
		t.Fatalf("ErrorCount = %d, want 1", got)
	}
	entry := result.Errors()[0]
	if entry.Kind != model.KindRemote || entry.Entity != "404" {
		t.Errorf("unexpected validation entry %+v", entry)
	}
}

func TestUploadRunCreatesMissingSample(t *testing.T) {
	dir := t.TempDir()
	fastq := filepath.Join(dir, "s1_S1_L001_R1_001.fastq.gz")
	if err := os.WriteFile(fastq, []byte("@read1\nACGT\n+\nFFFF\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var createdSample, uploaded bool
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/api/projects/7/samples/bySequencerId/s1":
			w.WriteHeader(nethttp.StatusNotFound)
		case r.Method == "POST" && r.URL.Path == "/api/projects/7/samples":
			createdSample = true
			w.WriteHeader(nethttp.StatusCreated)
		case r.Method == "POST" && r.URL.Path == "/api/projects/7/samples/s1/sequenceFiles":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("ParseMultipartForm: %v", err)
			}
			f, header, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("FormFile: %v", err)
			}
			f.Close()
			if header.Filename != "s1_S1_L001_R1_001.fastq.gz" {
				t.Errorf("uploaded filename = %q", header.Filename)
			}
			uploaded = true
			w.WriteHeader(nethttp.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(nethttp.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.accessToken = "tok"

	run := &model.SequencingRun{
		Projects: []model.Project{{
			ID: "7",
			Samples: []model.Sample{{
				Name:      "s1",
				ProjectID: "7",
				Files:     []model.SequenceFile{{Path: fastq, ReadNumber: 1}},
			}},
		}},
	}

	if err := client.UploadRun(context.Background(), run, nil); err != nil {
		t.Fatalf("UploadRun: %v", err)
	}
	if !createdSample {
		t.Error("missing sample was not created before upload")
	}
	if !uploaded {
		t.Error("sequence file was not uploaded")
	}
}

func TestUploadRunSampleLookupFailureStops(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.accessToken = "tok"

	run := &model.SequencingRun{
		Projects: []model.Project{{
			ID:      "7",
			Samples: []model.Sample{{Name: "s1", ProjectID: "7"}},
		}},
	}

	if err := client.UploadRun(context.Background(), run, nil); err == nil {
		t.Fatal("expected error from forbidden sample lookup")
	}
}

func TestIsConnectionError(t *testing.T) {
	wrapped := fmt.Errorf("upload stage: %w", &ConnectionError{URL: "https://irida.example.org/api", Err: errors.New("dial tcp: refused")})
	if !IsConnectionError(wrapped) {
		t.Error("wrapped ConnectionError not detected")
	}
	if IsConnectionError(errors.New("parse failure")) {
		t.Error("plain error misclassified as connection error")
	}
}
