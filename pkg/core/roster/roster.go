// Package roster owns the authoritative list of doctor identities,
// persisted as a JSON array in the remote document store.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dodouchiha/turni/pkg/core/model"
	"github.com/dodouchiha/turni/pkg/store"
)

// Roster is the in-memory view of the remote doctor list. Mutations follow
// a commit-on-remote-success discipline: the in-memory state only changes
// after the store acknowledged the write, so a failed Put leaves the roster
// at its last-known-good value.
type Roster struct {
	path   string
	docs   store.DocumentStore
	retry  *store.RetryPolicy
	backup *store.BackupCache
	logger *zap.Logger

	names    []string // sorted display names
	token    string   // version token of the last observed remote state; "" means create-on-save
	degraded bool     // true when operating from backup data
}

// Load reads the roster from the remote store. A missing document yields an
// empty roster that will be created on first save. When the remote is
// unreachable after retries (or the payload is corrupt) the local backup is
// used instead and the roster is marked degraded; if the backup is empty
// too, an empty roster is returned with a warning.
func Load(ctx context.Context, docs store.DocumentStore, retry *store.RetryPolicy, backup *store.BackupCache, logger *zap.Logger, path string) (*Roster, error) {
	r := &Roster{
		path:   path,
		docs:   docs,
		retry:  retry,
		backup: backup,
		logger: logger,
	}

	var (
		data  []byte
		token string
	)
	err := retry.Do(ctx, logger, "load roster", func(ctx context.Context) error {
		var err error
		data, token, err = docs.Get(ctx, path)
		return err
	})

	switch {
	case err == nil:
		names, decErr := decodeNames(data)
		if decErr != nil {
			return r.loadFromBackup(decErr)
		}
		r.names = names
		r.token = token
		backup.Save(path, data)
		logger.Info("Roster loaded",
			zap.String("path", path),
			zap.Int("doctors", len(names)),
			zap.String("token", token))
		return r, nil

	case errors.Is(err, store.ErrNotFound):
		logger.Warn("Roster document not found, will be created on first save",
			zap.String("path", path))
		r.names = []string{}
		r.token = ""
		return r, nil

	case store.IsTransient(err) || errors.Is(err, store.ErrCorrupt):
		return r.loadFromBackup(err)

	default:
		// Unauthorized and anything else terminal.
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
}

// loadFromBackup switches the roster to degraded mode using the local
// mirror, falling back to an empty roster when none is usable.
func (r *Roster) loadFromBackup(cause error) (*Roster, error) {
	r.degraded = true
	r.token = ""

	data := r.backup.Load(r.path)
	if data == nil {
		r.logger.Warn("Remote unavailable and no local backup, starting with empty roster",
			zap.String("path", r.path),
			zap.Error(cause))
		r.names = []string{}
		return r, nil
	}

	names, err := decodeNames(data)
	if err != nil {
		r.logger.Warn("Local backup unusable, starting with empty roster",
			zap.String("path", r.path),
			zap.Error(err))
		r.names = []string{}
		return r, nil
	}

	r.logger.Warn("Operating in degraded mode from local backup",
		zap.String("path", r.path),
		zap.Int("doctors", len(names)),
		zap.Error(cause))
	r.names = names
	return r, nil
}

// Add validates and persists a new doctor name. The normalized name is
// returned on success. Duplicates (case- and diacritic-insensitive) and
// malformed names fail with *ValidationError before any remote call.
func (r *Roster) Add(ctx context.Context, raw string) (string, error) {
	name, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	if r.Contains(name) {
		return "", &ValidationError{Name: name, Reason: "already in the roster"}
	}

	candidate := append(append([]string(nil), r.names...), name)
	sort.Strings(candidate)

	if err := r.save(ctx, candidate, "add doctor"); err != nil {
		return "", err
	}
	r.logger.Info("Doctor added", zap.String("name", name))
	return name, nil
}

// Remove persists the roster without the given doctor. Removing a name that
// is not present fails with *ValidationError and issues no remote write.
func (r *Roster) Remove(ctx context.Context, name string) error {
	key := FoldKey(name)

	candidate := make([]string, 0, len(r.names))
	found := false
	for _, n := range r.names {
		if FoldKey(n) == key {
			found = true
			continue
		}
		candidate = append(candidate, n)
	}
	if !found {
		return &ValidationError{Name: name, Reason: "not in the roster"}
	}

	if err := r.save(ctx, candidate, "remove doctor"); err != nil {
		return err
	}
	r.logger.Info("Doctor removed", zap.String("name", name))
	return nil
}

// save writes candidate to the remote store and commits it in memory only
// on success, adopting the returned version token.
func (r *Roster) save(ctx context.Context, candidate []string, op string) error {
	data, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	var newToken string
	err = r.retry.Do(ctx, r.logger, op, func(ctx context.Context) error {
		var err error
		newToken, err = r.docs.Put(ctx, r.path, data, r.token)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}

	r.names = candidate
	r.token = newToken
	r.degraded = false
	r.backup.Save(r.path, data)
	return nil
}

// Names returns the sorted doctor names.
func (r *Roster) Names() []string {
	return append([]string(nil), r.names...)
}

// Contains reports membership using the fold key.
func (r *Roster) Contains(name string) bool {
	key := FoldKey(name)
	for _, n := range r.names {
		if FoldKey(n) == key {
			return true
		}
	}
	return false
}

// Token returns the version token of the last observed remote state.
func (r *Roster) Token() string {
	return r.token
}

// Degraded reports whether the roster was loaded from the local backup.
func (r *Roster) Degraded() bool {
	return r.degraded
}

// decodeNames accepts both roster wire shapes: the current JSON array of
// display names and the per-month object, whose medici keys double as a
// name list for older data.
func decodeNames(data []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		sort.Strings(names)
		return names, nil
	}

	var doc model.MonthDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Doctors != nil {
		names := make([]string, 0, len(doc.Doctors))
		for name := range doc.Doctors {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}

	return nil, fmt.Errorf("%w: unrecognized roster document shape", store.ErrCorrupt)
}
