package executor

import "context"

// Executor runs external binaries such as ffmpeg, ffprobe and whisper.
// Cancelling ctx kills the child process.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
}
