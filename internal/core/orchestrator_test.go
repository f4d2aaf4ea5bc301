package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mariellemanlulu/irida-uploader/internal/api"
	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/logging"
	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
	"github.com/mariellemanlulu/irida-uploader/internal/progress"
	"github.com/mariellemanlulu/irida-uploader/internal/status"
)

const validSheet = `[Header]
Experiment Name,run-22
Workflow,GenerateFASTQ

[Reads]
151
151

[Data]
Sample_Name,Sample_Project,Description
s1,7,first
`

// makeRun builds a NextSeq run fixture with a resolvable paired sample.
func makeRun(t *testing.T) string {
	t.Helper()
	return makeRunWithFiles(t, validSheet, []string{
		"s1_S1_R1_001.fastq.gz", "s1_S1_R2_001.fastq.gz",
	})
}

func makeRunWithFiles(t *testing.T, sheet string, files []string) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "SampleSheet.csv"), []byte(sheet), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "RTAComplete.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	base := filepath.Join(dir, "Data", "Intensities", "BaseCalls", "7")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(base, name), []byte("@read"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

type fakeSession struct {
	rejection   model.ValidationResult
	verifyErr   error
	uploadErr   error
	uploaded    bool
	uploadedRun *model.SequencingRun
}

func (s *fakeSession) ValidateRunUploadable(ctx context.Context, run *model.SequencingRun) (model.ValidationResult, error) {
	return s.rejection, s.verifyErr
}

func (s *fakeSession) UploadRun(ctx context.Context, run *model.SequencingRun, ui *progress.UploadUI) error {
	s.uploaded = true
	s.uploadedRun = run
	return s.uploadErr
}

type fakeConnector struct {
	session *fakeSession
	err     error
	calls   int
}

func (c *fakeConnector) connect(ctx context.Context) (Session, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

func newOrchestrator(connector *fakeConnector) *Orchestrator {
	cfg := config.Default()
	cfg.BaseURL = "https://irida.example.org/api"
	return NewOrchestrator(cfg, logging.NewCLILogger(), connector.connect)
}

func readStatus(t *testing.T, dir string) status.DirectoryStatus {
	t.Helper()
	s, err := status.Read(dir)
	if err != nil {
		t.Fatalf("Read status: %v", err)
	}
	return s
}

func TestUploadRunSuccess(t *testing.T) {
	dir := makeRun(t)
	connector := &fakeConnector{session: &fakeSession{}}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !connector.session.uploaded {
		t.Error("run was not uploaded")
	}
	if got := readStatus(t, dir); got != status.Complete {
		t.Errorf("final status = %s, want COMPLETE", got)
	}
	if run := connector.session.uploadedRun; run == nil || run.SampleCount() != 1 {
		t.Errorf("uploaded run = %+v", run)
	}
}

func TestUploadRunMissingSentinel(t *testing.T) {
	dir := makeRun(t)
	if err := os.Remove(filepath.Join(dir, "RTAComplete.txt")); err != nil {
		t.Fatal(err)
	}
	connector := &fakeConnector{session: &fakeSession{}}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if connector.calls != 0 {
		t.Error("invalid directory should never reach the connection stage")
	}
	if _, err := os.Stat(filepath.Join(dir, status.FileName)); !os.IsNotExist(err) {
		t.Error("invalid directory must not get a status marker")
	}
}

func TestUploadRunValidationFailureWritesError(t *testing.T) {
	// Sheet references s1 but no sequence files exist on disk.
	dir := makeRunWithFiles(t, validSheet, nil)
	connector := &fakeConnector{session: &fakeSession{}}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if connector.calls != 0 {
		t.Error("offline validation failure should never reach the connection stage")
	}
	if got := readStatus(t, dir); got != status.Error {
		t.Errorf("status = %s, want ERROR", got)
	}
}

func TestUploadRunConnectionFailureKeepsPartial(t *testing.T) {
	dir := makeRun(t)
	connector := &fakeConnector{
		err: &api.ConnectionError{URL: "https://irida.example.org/api", Err: errors.New("dial tcp: refused")},
	}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if got := readStatus(t, dir); got != status.Partial {
		t.Errorf("status = %s, want PARTIAL after connection loss", got)
	}
}

func TestUploadRunConnectionLossDuringUploadKeepsPartial(t *testing.T) {
	dir := makeRun(t)
	session := &fakeSession{
		uploadErr: &api.ConnectionError{URL: "https://irida.example.org/api", Err: errors.New("broken pipe")},
	}
	connector := &fakeConnector{session: session}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if got := readStatus(t, dir); got != status.Partial {
		t.Errorf("status = %s, want PARTIAL after upload connection loss", got)
	}
}

func TestUploadRunOnlineRejectionWritesError(t *testing.T) {
	dir := makeRun(t)
	var rejection model.ValidationResult
	rejection.AddError(model.ValidationError{
		Kind:    model.KindRemote,
		Entity:  "7",
		Message: "project 7 does not exist",
	})
	session := &fakeSession{rejection: rejection}
	connector := &fakeConnector{session: session}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if session.uploaded {
		t.Error("rejected run must not be uploaded")
	}
	if got := readStatus(t, dir); got != status.Error {
		t.Errorf("status = %s, want ERROR after structural rejection", got)
	}
}

func TestUploadRunCompleteDirectorySkipped(t *testing.T) {
	dir := makeRun(t)
	if err := status.Write(dir, status.Complete); err != nil {
		t.Fatal(err)
	}
	connector := &fakeConnector{session: &fakeSession{}}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, false)

	if code != ExitFailure {
		t.Fatalf("exit code = %d, want %d", code, ExitFailure)
	}
	if connector.session.uploaded {
		t.Error("COMPLETE directory must not re-upload without force")
	}
	if got := readStatus(t, dir); got != status.Complete {
		t.Errorf("status = %s, COMPLETE marker must survive a skipped attempt", got)
	}
}

func TestUploadRunForceReuploadsCompleteDirectory(t *testing.T) {
	dir := makeRun(t)
	if err := status.Write(dir, status.Complete); err != nil {
		t.Fatal(err)
	}
	connector := &fakeConnector{session: &fakeSession{}}

	code := newOrchestrator(connector).UploadRun(context.Background(), dir, true)

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !connector.session.uploaded {
		t.Error("force should re-upload a COMPLETE directory")
	}
}

func TestUploadFirstNewRun(t *testing.T) {
	root := t.TempDir()

	uploaded := makeChildRun(t, root, "200101_NS500_0001")
	if err := status.Write(uploaded, status.Complete); err != nil {
		t.Fatal(err)
	}
	fresh := makeChildRun(t, root, "200102_NS500_0002")

	connector := &fakeConnector{session: &fakeSession{}}
	code := newOrchestrator(connector).UploadFirstNewRun(context.Background(), root)

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !connector.session.uploaded {
		t.Fatal("new run was not uploaded")
	}
	if got := readStatus(t, fresh); got != status.Complete {
		t.Errorf("fresh run status = %s, want COMPLETE", got)
	}
}

func TestUploadFirstNewRunNothingToDo(t *testing.T) {
	connector := &fakeConnector{session: &fakeSession{}}
	code := newOrchestrator(connector).UploadFirstNewRun(context.Background(), t.TempDir())

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (no new runs is a success)", code, ExitSuccess)
	}
	if connector.calls != 0 {
		t.Error("nothing should connect when there is nothing to upload")
	}
}

// makeChildRun builds a run fixture as a named child of root instead of a
// free-standing temp directory.
func makeChildRun(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)

	base := filepath.Join(dir, "Data", "Intensities", "BaseCalls", "7")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "SampleSheet.csv"), []byte(validSheet), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "RTAComplete.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"s1_S1_R1_001.fastq.gz", "s1_S1_R2_001.fastq.gz"} {
		if err := os.WriteFile(filepath.Join(base, name), []byte("@read"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNewParserUnknown(t *testing.T) {
	if _, err := NewParser("miseq"); err == nil {
		t.Fatal("expected error for unknown parser token")
	}
}

func TestParseAndValidateDuplicateSamples(t *testing.T) {
	sheet := `[Header]
Experiment Name,run-dup
[Reads]
151
[Data]
Sample_Name,Sample_Project
s1,7
s1,7
`
	dir := makeRunWithFiles(t, sheet, []string{"s1_S1_R1_001.fastq.gz"})

	p, err := NewParser("nextseq")
	if err != nil {
		t.Fatal(err)
	}

	_, err = ParseAndValidate(p, dir, nil)
	if err == nil {
		t.Fatal("expected validation error for duplicate sample")
	}
	var verr *parsers.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *parsers.ValidationError, got %T: %v", err, err)
	}
	if verr.Result.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", verr.Result.ErrorCount())
	}
	if got := verr.Result.Errors()[0].Kind; got != model.KindDuplicateSample {
		t.Errorf("kind = %s, want %s", got, model.KindDuplicateSample)
	}
}

func TestParseAndValidateDeterministic(t *testing.T) {
	dir := makeRun(t)
	p, err := NewParser("nextseq")
	if err != nil {
		t.Fatal(err)
	}

	first, err := ParseAndValidate(p, dir, nil)
	if err != nil {
		t.Fatalf("first ParseAndValidate: %v", err)
	}
	second, err := ParseAndValidate(p, dir, nil)
	if err != nil {
		t.Fatalf("second ParseAndValidate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("equal inputs must produce structurally equal runs")
	}
}
