package crawler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kasuboski/umaru/pkg/catalog"
	mio "github.com/kasuboski/umaru/pkg/io"
	"github.com/kasuboski/umaru/pkg/logger"
)

// OutputPlaceholder in an argument is replaced with the path the command must write its snapshot to
const OutputPlaceholder = "{output}"

// ExecCrawler runs an external crawler command. The command writes to a scratch
// file next to the snapshot location; only a snapshot that decodes is moved into place.
type ExecCrawler struct {
	command      string
	args         []string
	workDir      string
	snapshotPath string
	fs           mio.FileIO
	now          func() time.Time
}

func NewExecCrawler(command string, args []string, workDir, snapshotPath string, fs mio.FileIO) *ExecCrawler {
	return &ExecCrawler{
		command:      command,
		args:         args,
		workDir:      workDir,
		snapshotPath: snapshotPath,
		fs:           fs,
		now:          time.Now,
	}
}

func (c *ExecCrawler) Crawl(ctx context.Context) (catalog.Snapshot, error) {
	log := logger.FromCtx(ctx, "command", c.command)

	snapshotPath, err := filepath.Abs(c.snapshotPath)
	if err != nil {
		return catalog.Snapshot{}, fail(KindExec, err)
	}
	output := snapshotPath + ".partial"

	if err := c.fs.Remove(output); err != nil {
		return catalog.Snapshot{}, fail(KindExec, fmt.Errorf("failed to clear scratch output: %w", err))
	}
	defer c.fs.Remove(output)

	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = strings.ReplaceAll(a, OutputPlaceholder, output)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = c.workDir

	start := time.Now()
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Debugw("crawler output", "output", tail(out, 2048))
			return catalog.Snapshot{}, fail(KindExec, fmt.Errorf("%s exited with code %d", c.command, exitErr.ExitCode()))
		}
		return catalog.Snapshot{}, fail(KindExec, err)
	}
	log.Debugw("crawler finished", "took", time.Since(start))

	b, err := c.fs.ReadFile(output)
	if err != nil {
		return catalog.Snapshot{}, fail(KindExec, fmt.Errorf("crawler wrote no snapshot: %w", err))
	}

	snapshot, err := catalog.Decode(b, c.now())
	if err != nil {
		return catalog.Snapshot{}, fail(KindExec, err)
	}

	if err := c.fs.Rename(output, snapshotPath); err != nil {
		return catalog.Snapshot{}, fail(KindExec, fmt.Errorf("failed to move snapshot into place: %w", err))
	}

	return snapshot, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
