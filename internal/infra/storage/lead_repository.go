package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadgate/internal/entity"
)

// Header is the fixed column layout of the store file.
var Header = []string{"Name", "Email", "Phone", "Company", "Timestamp", "Contacted", "Added to Vincere"}

// LeadRepository keeps every lead in a single CSV file. It is safe for concurrent use;
// every write rewrites the file through a temp file and a rename.
//
// The file is always written in canonical form (True/False, no BOM). Rows edited by hand in
// another format are accepted on read and normalised by the next write.
type LeadRepository struct {
	mu   sync.RWMutex
	path string

	createTemp func(dir, pattern string) (*os.File, error)
	rename     func(oldpath, newpath string) error
}

var _ entity.LeadRepositoryInterface = (*LeadRepository)(nil)

func NewLeadRepository(path string) *LeadRepository {
	return &LeadRepository{
		path:       path,
		createTemp: os.CreateTemp,
		rename:     os.Rename,
	}
}

func (r *LeadRepository) Path() string {
	return r.path
}

// Append adds one lead at the end. CreatedAt is stored in local time to the second, clamped so
// timestamps never go backwards; lead.Key is set on success.
func (r *LeadRepository) Append(ctx context.Context, lead *entity.Lead) error {
	return r.AppendIf(ctx, lead, nil)
}

// AppendIf runs guard against the current rows inside the write lock and appends only if
// it returns nil.
func (r *LeadRepository) AppendIf(ctx context.Context, lead *entity.Lead, guard func([]entity.Lead) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.read()
	if err != nil {
		return err
	}
	if guard != nil {
		if err := guard(leads); err != nil {
			return err
		}
	}

	lead.CreatedAt = lead.CreatedAt.Local().Truncate(time.Second)
	if n := len(leads); n > 0 && lead.CreatedAt.Before(leads[n-1].CreatedAt) {
		lead.CreatedAt = leads[n-1].CreatedAt
	}

	leads = append(leads, *lead)
	if err := r.write(leads); err != nil {
		return err
	}

	entity.AssignKeys(leads)
	lead.Key = leads[len(leads)-1].Key
	return nil
}

// LoadAll returns every lead in file order. A missing file is an empty store.
func (r *LeadRepository) LoadAll(ctx context.Context) ([]entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read()
}

// UpdateFlagsAt changes only the status flags of the row at index. Nil leaves a flag as is.
func (r *LeadRepository) UpdateFlagsAt(ctx context.Context, index int, contacted, converted *bool) error {
	return r.mutate(ctx, func(leads []entity.Lead) ([]entity.Lead, error) {
		if index < 0 || index >= len(leads) {
			return nil, fmt.Errorf("%w: %d (rows: %d)", entity.ErrIndexOutOfRange, index, len(leads))
		}
		applyFlags(&leads[index], contacted, converted)
		return leads, nil
	})
}

// DeleteAt removes the row at index; later rows shift up by one.
func (r *LeadRepository) DeleteAt(ctx context.Context, index int) error {
	return r.mutate(ctx, func(leads []entity.Lead) ([]entity.Lead, error) {
		if index < 0 || index >= len(leads) {
			return nil, fmt.Errorf("%w: %d (rows: %d)", entity.ErrIndexOutOfRange, index, len(leads))
		}
		return append(leads[:index], leads[index+1:]...), nil
	})
}

func (r *LeadRepository) UpdateFlags(ctx context.Context, key string, contacted, converted *bool) error {
	return r.mutate(ctx, func(leads []entity.Lead) ([]entity.Lead, error) {
		i, err := indexOf(leads, key)
		if err != nil {
			return nil, err
		}
		applyFlags(&leads[i], contacted, converted)
		return leads, nil
	})
}

func (r *LeadRepository) Delete(ctx context.Context, key string) error {
	return r.mutate(ctx, func(leads []entity.Lead) ([]entity.Lead, error) {
		i, err := indexOf(leads, key)
		if err != nil {
			return nil, err
		}
		return append(leads[:i], leads[i+1:]...), nil
	})
}

// ExportCSV serializes the whole table, header included.
func (r *LeadRepository) ExportCSV(ctx context.Context) ([]byte, error) {
	leads, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := FormatCSV(&buf, leads); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Check reports whether the store file can be read. A missing file is healthy.
func (r *LeadRepository) Check() error {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func (r *LeadRepository) mutate(ctx context.Context, fn func([]entity.Lead) ([]entity.Lead, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.read()
	if err != nil {
		return err
	}

	leads, err = fn(leads)
	if err != nil {
		return err
	}
	return r.write(leads)
}

func (r *LeadRepository) read() ([]entity.Lead, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []entity.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open lead store: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

func (r *LeadRepository) write(leads []entity.Lead) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir: %w", entity.ErrWriteFailed, err)
	}

	tmp, err := r.createTemp(dir, ".leads-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", entity.ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %w", entity.ErrWriteFailed, step, err)
	}

	if err := FormatCSV(tmp, leads); err != nil {
		return fail("write rows", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %w", entity.ErrWriteFailed, err)
	}
	if err := r.rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %w", entity.ErrWriteFailed, err)
	}
	return nil
}

// ParseCSV reads a store file. Any malformed row fails the whole read.
func ParseCSV(src io.Reader) ([]entity.Lead, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []entity.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", entity.ErrReadCorrupted, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !equalHeader(header) {
		return nil, fmt.Errorf("%w: unexpected header %q", entity.ErrReadCorrupted, header)
	}

	leads := []entity.Lead{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", entity.ErrReadCorrupted, line, err)
		}
		if len(row) != len(Header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", entity.ErrReadCorrupted, line, len(row), len(Header))
		}

		lead, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", entity.ErrReadCorrupted, line, err)
		}
		leads = append(leads, lead)
	}

	entity.AssignKeys(leads)
	return leads, nil
}

// FormatCSV writes the header followed by one row per lead.
func FormatCSV(dst io.Writer, leads []entity.Lead) error {
	w := csv.NewWriter(dst)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, l := range leads {
		row := []string{
			l.Name,
			l.Email,
			l.Phone,
			l.Company,
			l.CreatedAt.Format(entity.TimestampLayout),
			formatBool(l.Contacted),
			formatBool(l.ConvertedToCRM),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseRow(row []string) (entity.Lead, error) {
	createdAt, err := time.ParseInLocation(entity.TimestampLayout, row[4], time.Local)
	if err != nil {
		return entity.Lead{}, fmt.Errorf("timestamp %q: %w", row[4], err)
	}
	contacted, err := parseBool(row[5])
	if err != nil {
		return entity.Lead{}, err
	}
	converted, err := parseBool(row[6])
	if err != nil {
		return entity.Lead{}, err
	}

	return entity.Lead{
		Name:           row[0],
		Email:          row[1],
		Phone:          row[2],
		Company:        row[3],
		CreatedAt:      createdAt,
		Contacted:      contacted,
		ConvertedToCRM: converted,
	}, nil
}

func equalHeader(h []string) bool {
	if len(h) != len(Header) {
		return false
	}
	for i := range Header {
		if strings.TrimSpace(h[i]) != Header[i] {
			return false
		}
	}
	return true
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return false, fmt.Errorf("boolean %q", s)
}

func applyFlags(l *entity.Lead, contacted, converted *bool) {
	if contacted != nil {
		l.Contacted = *contacted
	}
	if converted != nil {
		l.ConvertedToCRM = *converted
	}
}

func indexOf(leads []entity.Lead, key string) (int, error) {
	for i := range leads {
		if leads[i].Key == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", entity.ErrRecordNotFound, key)
}
