// Package artifact persists acquired report data as one JSON document per
// subject and period, and reads the extracted text back with coded outcomes.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

// Coded outcomes of ReadText. Callers branch on these exact tokens.
const (
	FileNotFound    = "FILE_NOT_FOUND"
	NoExtractedText = "NO_EXTRACTED_TEXT"
	ReadError       = "READ_ERROR"
)

const FormatJSON = "json"

type Config struct {
	DataDir   string `envconfig:"DATA_DIR" split_words:"true" default:"./local_data"`
	UploadDir string `envconfig:"UPLOAD_DIR" split_words:"true" default:"./user_uploads"`
}

type Table struct {
	Name   string         `json:"table_name" validate:"required"`
	Fields map[string]any `json:"data"`
}

type Record struct {
	Subject       string         `json:"subject" validate:"required"`
	Period        string         `json:"period" validate:"required"`
	SourceURL     string         `json:"source_url,omitempty" validate:"omitempty,url"`
	ExtractedText *string        `json:"extracted_text,omitempty"`
	Tables        []Table        `json:"tables" validate:"dive"`
	KeyMetrics    map[string]any `json:"key_metrics,omitempty"`
	Status        string         `json:"status,omitempty"`
	LocalPath     string         `json:"local_path,omitempty"`
}

type Store struct {
	dataDir   string
	uploadDir string
	validate  *validator.Validate
}

func NewStore(cfg Config) *Store {
	dataDir := strings.TrimSpace(cfg.DataDir)
	if dataDir == "" {
		dataDir = "./local_data"
	}
	uploadDir := strings.TrimSpace(cfg.UploadDir)
	if uploadDir == "" {
		uploadDir = "./user_uploads"
	}
	return &Store{
		dataDir:   dataDir,
		uploadDir: uploadDir,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Key identifies a subject/period pair, e.g. "Tencent_2023".
func Key(subject, period string) string {
	return sanitize(subject) + "_" + sanitize(period)
}

func (s *Store) Path(subject, period string) string {
	return filepath.Join(s.dataDir, Key(subject, period)+"_processed.json")
}

func (s *Store) UploadPath(subject, period string) string {
	return filepath.Join(s.uploadDir, Key(subject, period)+"_report.pdf")
}

type UploadStatus struct {
	Found   bool   `json:"found"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func (s *Store) CheckUpload(subject, period string) (UploadStatus, error) {
	path := s.UploadPath(subject, period)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return UploadStatus{
			Found:   false,
			Message: fmt.Sprintf("no uploaded report for %s %s; fetch it externally", subject, period),
		}, nil
	case err != nil:
		return UploadStatus{}, err
	case info.IsDir():
		return UploadStatus{Found: false, Message: fmt.Sprintf("%s is a directory, not a report", path)}, nil
	}
	return UploadStatus{
		Found:   true,
		Message: fmt.Sprintf("found uploaded report for %s %s", subject, period),
		Path:    path,
	}, nil
}

func (s *Store) Validate(rec Record) error {
	if err := s.validate.Struct(rec); err != nil {
		return fmt.Errorf("%w: artifact record: %v", contractx.ErrValidation, err)
	}
	return nil
}

// Save validates rec and writes it under the data dir. The returned record
// carries the local path it was written to.
func (s *Store) Save(rec Record, format string) (Record, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON {
		return Record{}, fmt.Errorf("%w: unsupported artifact format %q", contractx.ErrValidation, format)
	}
	if err := s.Validate(rec); err != nil {
		return Record{}, err
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return Record{}, fmt.Errorf("artifact: create data dir: %w", err)
	}

	rec.LocalPath = s.Path(rec.Subject, rec.Period)
	if rec.Status == "" {
		rec.Status = "saved"
	}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("artifact: marshal: %w", err)
	}

	tmp := rec.LocalPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return Record{}, fmt.Errorf("artifact: write: %w", err)
	}
	if err := os.Rename(tmp, rec.LocalPath); err != nil {
		return Record{}, fmt.Errorf("artifact: rename: %w", err)
	}
	return rec, nil
}

func (s *Store) Load(subject, period string) (Record, error) {
	raw, err := os.ReadFile(s.Path(subject, period))
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("artifact: decode: %w", err)
	}
	return rec, nil
}

// ReadText returns the extracted text or one of FileNotFound,
// NoExtractedText or ReadError.
func (s *Store) ReadText(subject, period string) string {
	rec, err := s.Load(subject, period)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return FileNotFound
	case err != nil:
		return ReadError
	case rec.ExtractedText == nil || strings.TrimSpace(*rec.ExtractedText) == "":
		return NoExtractedText
	}
	return *rec.ExtractedText
}

func IsCoded(text string) bool {
	switch text {
	case FileNotFound, NoExtractedText, ReadError:
		return true
	}
	return false
}

func sanitize(v string) string {
	v = strings.TrimSpace(v)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, v)
}
