package exec

import (
	"bytes"
	"io"
	osexec "os/exec"
	"sync"
)

// lockedBuffer is a bytes.Buffer that tolerates the concurrent writes
// os/exec makes when two streams share a destination.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// streams collects a child's output. Each stream is kept separately and
// both are interleaved into combined.
type streams struct {
	stdout   lockedBuffer
	stderr   lockedBuffer
	combined lockedBuffer
}

// attach connects cmd's output to s. Non-nil echo writers receive a copy
// as the child writes.
func (s *streams) attach(cmd *osexec.Cmd, echoStdout, echoStderr io.Writer) {
	cmd.Stdout = tee(&s.stdout, &s.combined, echoStdout)
	cmd.Stderr = tee(&s.stderr, &s.combined, echoStderr)
}

func (s *streams) result(exitCode int) *Result {
	return &Result{
		Stdout:   s.stdout.String(),
		Stderr:   s.stderr.String(),
		Combined: s.combined.String(),
		ExitCode: exitCode,
	}
}

func tee(capture, combined, echo io.Writer) io.Writer {
	if echo == nil {
		return io.MultiWriter(capture, combined)
	}
	return io.MultiWriter(capture, combined, echo)
}
