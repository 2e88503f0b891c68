// Package crawler produces catalog snapshots from external sources.
package crawler

import (
	"context"
	"fmt"

	"github.com/kasuboski/umaru/pkg/catalog"
)

// Kind names a crawler implementation
type Kind string

const (
	KindExec     Kind = "exec"
	KindSchedule Kind = "schedule"
	KindFile     Kind = "file"
)

// Crawler fetches a complete snapshot of currently airing shows. A failed crawl
// returns a *Failure and must not publish a partial snapshot.
type Crawler interface {
	Crawl(ctx context.Context) (catalog.Snapshot, error)
}

// Failure is returned when a crawl did not produce a usable snapshot
type Failure struct {
	Kind Kind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s crawl failed: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(kind Kind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}
