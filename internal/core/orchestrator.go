package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/mariellemanlulu/irida-uploader/internal/api"
	"github.com/mariellemanlulu/irida-uploader/internal/cloud"
	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/logging"
	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
	"github.com/mariellemanlulu/irida-uploader/internal/progress"
	"github.com/mariellemanlulu/irida-uploader/internal/status"
	"github.com/mariellemanlulu/irida-uploader/internal/version"
)

// Exit codes returned to the CLI layer. Core never calls os.Exit.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// stage names the states of the upload state machine, in order. Each
// stage either advances to the next or fails the attempt.
type stage int

const (
	stageStart stage = iota
	stageStatusWritten
	stageParsed
	stageOfflineValid
	stageConnected
	stageOnlineValid
	stageUploaded
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageStart:
		return "START"
	case stageStatusWritten:
		return "STATUS_WRITTEN"
	case stageParsed:
		return "PARSED"
	case stageOfflineValid:
		return "OFFLINE_VALID"
	case stageConnected:
		return "CONNECTED"
	case stageOnlineValid:
		return "ONLINE_VALID"
	case stageUploaded:
		return "UPLOADED"
	default:
		return "DONE"
	}
}

// Session is the remote side of an upload attempt, established by a
// Connector once the run has parsed cleanly.
type Session interface {
	// ValidateRunUploadable asks the service whether the run may be
	// uploaded. A non-empty result is a structural rejection; an error is
	// a transport-level failure that says nothing about the run.
	ValidateRunUploadable(ctx context.Context, run *model.SequencingRun) (model.ValidationResult, error)

	// UploadRun transmits every sequence file of the run.
	UploadRun(ctx context.Context, run *model.SequencingRun, ui *progress.UploadUI) error
}

// Connector establishes a Session. Connection failures are reported as
// (or wrap) an api.ConnectionError.
type Connector func(ctx context.Context) (Session, error)

// Orchestrator drives one run directory through the upload state machine.
type Orchestrator struct {
	cfg     *config.Config
	log     *logging.Logger
	connect Connector

	// Lister supplies an object-store data listing instead of the local
	// filesystem walk. Nil for local deployments.
	Lister cloud.Lister

	// ShowProgress renders per-file upload bars. Off for batch and tests.
	ShowProgress bool
}

// NewOrchestrator creates an orchestrator. The connector is invoked once
// per upload attempt, after offline validation has passed.
func NewOrchestrator(cfg *config.Config, log *logging.Logger, connect Connector) *Orchestrator {
	return &Orchestrator{cfg: cfg, log: log, connect: connect}
}

// UploadRun uploads a single run directory and returns the process exit
// code. One invocation is one attempt: there is no internal retry loop,
// a failed directory is retried by invoking the orchestrator again.
//
// Status writes follow the durability rules of the marker file:
//   - PARTIAL is written as the first act of the attempt; if that write
//     fails nothing else runs and the prior status survives.
//   - Parse and validation failures, and a structural rejection from the
//     service, write ERROR.
//   - Connection failures never rewrite status; the directory keeps its
//     PARTIAL marker and a later attempt retries from scratch.
//   - The final COMPLETE write is best-effort: its failure is surfaced
//     but the attempt still counts as a success.
func (o *Orchestrator) UploadRun(ctx context.Context, directory string, force bool) int {
	parser, err := NewParser(o.cfg.Parser)
	if err != nil {
		o.log.Errorf("%v", err)
		return ExitFailure
	}

	o.startBlock(directory)
	defer o.endBlock(directory)

	runDir, err := parsers.DirectoryStatusOf(directory, parser.RequiredFiles())
	if err != nil {
		o.log.Errorf("cannot inspect run directory: %v", err)
		return ExitFailure
	}

	if runDir.Status == status.Invalid {
		o.log.Errorf("run directory %s is not uploadable, missing required files: %s",
			directory, strings.Join(runDir.MissingFiles, ", "))
		return ExitFailure
	}

	if runDir.Status != status.New && !force {
		o.log.Errorf("run directory %s has status %s, not NEW; use --force to upload anyway",
			directory, runDir.Status)
		return ExitFailure
	}

	// START -> STATUS_WRITTEN
	if err := status.Write(directory, status.Partial); err != nil {
		o.log.Errorf("cannot write status marker: %v", err)
		return ExitFailure
	}
	o.log.Debugf("stage %s complete", stageStatusWritten)

	// STATUS_WRITTEN -> PARSED -> OFFLINE_VALID
	data, err := o.dataListing(ctx, directory, parser)
	if err != nil {
		o.failWithError(directory, err)
		return ExitFailure
	}

	run, err := ParseAndValidate(parser, directory, data)
	if err != nil {
		o.failWithError(directory, err)
		return ExitFailure
	}
	o.log.Infof("parsed run %s: %d projects, %d samples, %d files",
		run.Metadata.RunName, len(run.Projects), run.SampleCount(), run.FileCount())
	o.log.Debugf("stage %s complete", stageOfflineValid)

	// OFFLINE_VALID -> CONNECTED
	session, err := o.connect(ctx)
	if err != nil {
		o.log.Errorf("cannot connect to %s: %v", o.cfg.BaseURL, err)
		return ExitFailure
	}
	o.log.Debugf("stage %s complete", stageConnected)

	// CONNECTED -> ONLINE_VALID
	result, err := session.ValidateRunUploadable(ctx, run)
	if err != nil {
		o.log.Errorf("online validation did not complete: %v", err)
		return ExitFailure
	}
	if !result.IsValid() {
		o.logValidationResult(result)
		o.writeError(directory)
		return ExitFailure
	}
	o.log.Debugf("stage %s complete", stageOnlineValid)

	// ONLINE_VALID -> UPLOADED
	var ui *progress.UploadUI
	if o.ShowProgress {
		ui = progress.NewUploadUI(run.FileCount())
	}
	err = session.UploadRun(ctx, run, ui)
	if ui != nil {
		ui.Wait()
	}
	if err != nil {
		o.log.Errorf("upload failed: %v", err)
		return ExitFailure
	}
	o.log.Debugf("stage %s complete", stageUploaded)

	// UPLOADED -> DONE
	if err := status.Write(directory, status.Complete); err != nil {
		o.log.Warnf("upload succeeded but the COMPLETE status write failed: %v", err)
		o.log.Warnf("a future scan may retry %s even though its data is uploaded", directory)
	}
	o.log.Infof("upload of %s complete", directory)
	return ExitSuccess
}

// UploadFirstNewRun scans root for candidate run directories and uploads
// the first one with all required files and status NEW. Finding nothing to
// do is a success.
func (o *Orchestrator) UploadFirstNewRun(ctx context.Context, root string) int {
	parser, err := NewParser(o.cfg.Parser)
	if err != nil {
		o.log.Errorf("%v", err)
		return ExitFailure
	}

	run, found, err := parsers.FindFirstNewRun(root, parser)
	if err != nil {
		o.log.Errorf("cannot scan %s: %v", root, err)
		return ExitFailure
	}
	if !found {
		o.log.Infof("no new runs found under %s", root)
		return ExitSuccess
	}

	o.log.Infof("found new run directory %s", run.Path)
	return o.UploadRun(ctx, run.Path, false)
}

// dataListing builds the sequence data listing from the configured cloud
// backend, or returns nil so the parser walks the local filesystem.
func (o *Orchestrator) dataListing(ctx context.Context, directory string, p parsers.Parser) (*parsers.DataDirectory, error) {
	if o.Lister == nil {
		return nil, nil
	}
	prefix := filepath.ToSlash(filepath.Join(filepath.Base(directory), p.RelativeDataDirectory()))
	return o.Lister.ListRunData(ctx, prefix)
}

// failWithError logs a parse or offline validation failure and writes the
// ERROR marker. Validation failures get every accumulated entry logged.
func (o *Orchestrator) failWithError(directory string, err error) {
	var verr *parsers.ValidationError
	if errors.As(err, &verr) {
		o.log.Errorf("%s", verr.Message)
		o.logValidationResult(verr.Result)
	} else {
		o.log.Errorf("cannot parse run directory: %v", err)
	}
	o.writeError(directory)
}

func (o *Orchestrator) logValidationResult(result model.ValidationResult) {
	for _, entry := range result.Errors() {
		o.log.Errorf("validation: %s", entry.Error())
	}
}

func (o *Orchestrator) writeError(directory string) {
	if err := status.Write(directory, status.Error); err != nil {
		o.log.Warnf("cannot write ERROR status marker: %v", err)
	}
}

// startBlock opens the per-directory log file and writes the banner that
// brackets one upload attempt in the logs.
func (o *Orchestrator) startBlock(directory string) {
	if path, err := o.log.AttachFile(directory); err == nil {
		o.log.Debugf("logging this attempt to %s", path)
	}
	o.log.Infof("--------------------------------------------------")
	o.log.Infof("Starting upload of run directory %s", directory)
	o.log.Infof("irida-uploader %s", version.Version)
	o.log.Infof("--------------------------------------------------")
}

func (o *Orchestrator) endBlock(directory string) {
	o.log.Infof("--------------------------------------------------")
	o.log.Infof("Finished processing run directory %s", directory)
	o.log.Infof("--------------------------------------------------")
	o.log.DetachFile()
}

// ConnectorFor adapts an API client factory into the orchestrator's
// Connector contract: build the client, establish the session, hand it
// back as the remote collaborator.
func ConnectorFor(cfg *config.Config, log *logging.Logger) Connector {
	return func(ctx context.Context) (Session, error) {
		client, err := api.NewClient(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}
