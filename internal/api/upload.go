package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/progress"
)

// UploadSequenceFile streams one sequence file to a sample as a multipart
// upload. The body is piped straight from disk so a multi-gigabyte fastq
// never has to fit in memory.
func (c *Client) UploadSequenceFile(ctx context.Context, projectID, sampleName string, file model.SequenceFile, reporter progress.Reporter) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return &model.SequenceFileError{
			Sample:  sampleName,
			Message: fmt.Sprintf("cannot open %s: %v", file.Path, err),
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &model.SequenceFileError{
			Sample:  sampleName,
			Message: fmt.Sprintf("cannot stat %s: %v", file.Path, err),
		}
	}

	reporter.Start(info.Size(), filepath.Base(file.Path))
	defer reporter.Finish()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(file.Path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, progress.NewProgressReader(f, reporter)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	path := fmt.Sprintf("%s/projects/%s/samples/%s/sequenceFiles",
		c.baseURL, projectID, url.PathEscape(sampleName))
	req, err := nethttp.NewRequestWithContext(ctx, "POST", path, pr)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return &ConnectionError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusCreated && resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload of %s failed: status %d: %s",
			filepath.Base(file.Path), resp.StatusCode, string(body))
	}

	return nil
}

// UploadRun sends every sequence file of a parsed run to the service,
// creating missing samples along the way. Files upload sequentially in the
// run's deterministic order; ui may be nil for quiet operation.
func (c *Client) UploadRun(ctx context.Context, run *model.SequencingRun, ui *progress.UploadUI) error {
	for _, project := range run.Projects {
		for _, sample := range project.Samples {
			exists, err := c.SampleExists(ctx, project.ID, sample.Name)
			if err != nil {
				return err
			}
			if !exists {
				c.log.Infof("creating sample %s in project %s", sample.Name, project.ID)
				if err := c.CreateSample(ctx, project.ID, sample); err != nil {
					return err
				}
			}

			for _, file := range sample.Files {
				reporter, done := c.fileReporter(ui, file, sample.Name)
				err := c.UploadSequenceFile(ctx, project.ID, sample.Name, file, reporter)
				done(err)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// fileReporter picks a progress reporter for one file: an mpb bar when a
// UI is attached, a silent reporter otherwise.
func (c *Client) fileReporter(ui *progress.UploadUI, file model.SequenceFile, sample string) (progress.Reporter, func(error)) {
	if ui == nil {
		if c.Progress != nil {
			return c.Progress, func(error) {}
		}
		return progress.NewNoOpProgress(), func(error) {}
	}

	size := int64(0)
	if info, err := os.Stat(file.Path); err == nil {
		size = info.Size()
	}
	bar := ui.AddFileBar(file.Path, sample, size)
	return bar.Reporter(), bar.Complete
}
