package dispatcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	mio "github.com/kasuboski/umaru/pkg/io"
)

// ConnLog appends one line per accepted connection
type ConnLog struct {
	path string
	fs   mio.FileIO
	mu   sync.Mutex
}

func NewConnLog(path string, fs mio.FileIO) *ConnLog {
	return &ConnLog{path: path, fs: fs}
}

// Record appends the remote address and time of a connection. A nil ConnLog records nothing.
func (l *ConnLog) Record(remote string, at time.Time) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	line := fmt.Sprintf("%s connected on %s\n", remote, at.Format(time.RFC3339))
	return l.fs.AppendFile(l.path, []byte(line), 0o644)
}
