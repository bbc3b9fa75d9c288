package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileState es el formato en disco: {"synced_invoices": [...], "last_updated": "..." | null}.
type fileState struct {
	SyncedInvoices []string `json:"synced_invoices"`
	LastUpdated    *string  `json:"last_updated"`
}

// FilePersister guarda el estado en un fichero JSON. Cada Save escribe un
// fichero temporal en el mismo directorio y lo renombra sobre el destino,
// así un fallo a mitad de escritura no corrompe el estado anterior.
type FilePersister struct {
	filePath string
}

var _ Persister = (*FilePersister)(nil)

func NewFilePersister(filePath string) *FilePersister {
	return &FilePersister{filePath: filePath}
}

func (p *FilePersister) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("read %s: %w", p.filePath, err)
	}
	if len(data) == 0 {
		return nil, ErrStateNotFound
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.filePath, err)
	}
	return st.SyncedInvoices, nil
}

func (p *FilePersister) Save(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// last_updated guarda la fecha de modificación del fichero que se reemplaza.
	st := fileState{SyncedInvoices: ids}
	if st.SyncedInvoices == nil {
		st.SyncedInvoices = []string{}
	}
	if info, err := os.Stat(p.filePath); err == nil {
		ts := info.ModTime().UTC().Format(time.RFC3339)
		st.LastUpdated = &ts
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op tras el rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, p.filePath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
