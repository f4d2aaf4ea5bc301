package directory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mariellemanlulu/irida-uploader/internal/model"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

const validList = `[Data]
Sample_Name,Project_ID,File_Forward,File_Reverse
s1,7,s1_R1.fastq.gz,s1_R2.fastq.gz
s2,12,s2_R1.fastq.gz,
`

func makeRunDirectory(t *testing.T, list string, files ...string) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "SampleList.csv"), []byte(list), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("@read"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestParseMetadataDerivesLayout(t *testing.T) {
	p := NewParser()
	dir := makeRunDirectory(t, validList,
		"s1_R1.fastq.gz", "s1_R2.fastq.gz", "s2_R1.fastq.gz")

	md, err := p.ParseMetadata(filepath.Join(dir, "SampleList.csv"))
	if err != nil {
		t.Fatalf("ParseMetadata() error = %v", err)
	}
	if md.LayoutType != "PAIRED_END" {
		t.Errorf("LayoutType = %q, want PAIRED_END", md.LayoutType)
	}
	if md.RunName != filepath.Base(dir) {
		t.Errorf("RunName = %q, want directory name %q", md.RunName, filepath.Base(dir))
	}
}

func TestParseMetadataHeaderOverridesRunName(t *testing.T) {
	p := NewParser()
	list := "[Header]\nRun Name,special-run\n" + validList
	dir := makeRunDirectory(t, list, "s1_R1.fastq.gz", "s1_R2.fastq.gz", "s2_R1.fastq.gz")

	md, err := p.ParseMetadata(filepath.Join(dir, "SampleList.csv"))
	if err != nil {
		t.Fatalf("ParseMetadata() error = %v", err)
	}
	if md.RunName != "special-run" {
		t.Errorf("RunName = %q, want special-run", md.RunName)
	}
}

func TestParseSamples(t *testing.T) {
	p := NewParser()
	dir := makeRunDirectory(t, validList,
		"s1_R1.fastq.gz", "s1_R2.fastq.gz", "s2_R1.fastq.gz")

	samples, result, err := p.ParseSamples(filepath.Join(dir, "SampleList.csv"), nil)
	if err != nil {
		t.Fatalf("ParseSamples() error = %v", err)
	}
	if !result.IsValid() {
		t.Fatalf("unexpected validation errors: %v", result.Errors())
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}

	if len(samples[0].Files) != 2 {
		t.Errorf("s1 files = %d, want 2", len(samples[0].Files))
	}
	if len(samples[1].Files) != 1 {
		t.Errorf("s2 files = %d, want 1", len(samples[1].Files))
	}
	if samples[1].Files[0].ReadNumber != 1 {
		t.Errorf("s2 read number = %d, want 1", samples[1].Files[0].ReadNumber)
	}
}

func TestParseSamplesMissingFileAccumulated(t *testing.T) {
	p := NewParser()
	// s1's reverse file is absent from disk.
	dir := makeRunDirectory(t, validList, "s1_R1.fastq.gz", "s2_R1.fastq.gz")

	samples, result, err := p.ParseSamples(filepath.Join(dir, "SampleList.csv"), nil)
	if err != nil {
		t.Fatalf("ParseSamples() error = %v", err)
	}
	if len(samples) != 1 || samples[0].Name != "s2" {
		t.Fatalf("expected only s2 to resolve, got %d samples", len(samples))
	}
	if result.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", result.ErrorCount())
	}
	if e := result.Errors()[0]; e.Kind != model.KindSequenceFile || e.Entity != "s1" {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestParseSamplesMissingColumns(t *testing.T) {
	p := NewParser()
	dir := makeRunDirectory(t, "[Data]\nSample_Name,Project_ID\ns1,7\n")

	_, _, err := p.ParseSamples(filepath.Join(dir, "SampleList.csv"), nil)
	if err == nil {
		t.Fatal("expected error for missing file columns")
	}
	var se *model.SampleSheetError
	if !errors.As(err, &se) {
		t.Fatalf("expected *model.SampleSheetError, got %T", err)
	}
}

func TestParseSamplesAgainstListing(t *testing.T) {
	p := NewParser()
	dir := makeRunDirectory(t, validList)

	data := &parsers.DataDirectory{
		Path: "bucket/run-1",
		Projects: []parsers.ProjectFiles{
			{Files: []string{"s1_R1.fastq.gz", "s1_R2.fastq.gz", "s2_R1.fastq.gz"}},
		},
	}

	samples, result, err := p.ParseSamples(filepath.Join(dir, "SampleList.csv"), data)
	if err != nil {
		t.Fatalf("ParseSamples() error = %v", err)
	}
	if !result.IsValid() {
		t.Fatalf("unexpected validation errors: %v", result.Errors())
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Files[0].Path != filepath.Join("bucket/run-1", "s1_R1.fastq.gz") {
		t.Errorf("unexpected listing-based path %s", samples[0].Files[0].Path)
	}
}

func TestFindSampleSheetMissing(t *testing.T) {
	p := NewParser()
	_, err := p.FindSampleSheet(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing sample list")
	}
	var de *model.DirectoryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *model.DirectoryError, got %T", err)
	}
}
