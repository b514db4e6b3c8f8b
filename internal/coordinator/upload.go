package coordinator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Uploader sends a spreadsheet to the backend.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) error
}

// File is a selected upload. Open is called once per upload attempt.
type File struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LocalFile selects a file on disk.
func LocalFile(path string) File {
	return File{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// UploadState is the Upload coordinator's RequestState. On success Payload
// holds the uploaded file name.
type UploadState = RequestState[string]

// Upload coordinates spreadsheet uploads.
type Upload struct {
	m      machine[string]
	client Uploader
	log    *zap.Logger

	fileMu  sync.Mutex
	file    *File
	fileGen uint64
}

func NewUpload(client Uploader, log *zap.Logger) *Upload {
	if log == nil {
		log = zap.NewNop()
	}
	return &Upload{client: client, log: log}
}

func (u *Upload) OnChange(fn func(UploadState)) { u.m.setListener(fn) }

func (u *Upload) State() UploadState { return u.m.current() }

// Select holds f for the next upload and clears a finished outcome.
func (u *Upload) Select(f File) {
	u.fileMu.Lock()
	u.file = &f
	u.fileGen++
	u.fileMu.Unlock()
	u.m.reset()
}

// Selected returns the held file, if any.
func (u *Upload) Selected() (File, bool) {
	u.fileMu.Lock()
	defer u.fileMu.Unlock()
	if u.file == nil {
		return File{}, false
	}
	return *u.file, true
}

// Upload sends the selected file. With nothing selected it fails at once
// with ErrMissingFile and makes no network call; the returned channel then
// already holds the Failed state. Otherwise the channel behaves as in
// Query.Submit.
func (u *Upload) Upload(ctx context.Context) (<-chan UploadState, error) {
	u.fileMu.Lock()
	f, gen := u.file, u.fileGen
	u.fileMu.Unlock()
	if f == nil || f.Open == nil {
		st := UploadState{Phase: Failed, Message: MsgSelectFile}
		u.m.begin(st)
		return delivered(st), ErrMissingFile
	}
	file := *f
	seq := u.m.begin(UploadState{Phase: Pending})
	out := make(chan UploadState, 1)
	go func() {
		defer close(out)
		next := u.run(ctx, seq, file)
		if !u.m.finish(seq, next) {
			u.log.Debug("discarding stale upload response", zap.Uint64("seq", seq))
			return
		}
		if next.Phase == Succeeded {
			u.clear(gen)
		}
		out <- next
	}()
	return out, nil
}

func (u *Upload) run(ctx context.Context, seq uint64, f File) UploadState {
	err := u.send(ctx, f)
	if err != nil {
		u.log.Error("upload failed",
			zap.Uint64("seq", seq),
			zap.String("file", f.Name),
			zap.Error(err))
		return UploadState{Phase: Failed, Message: MsgUploadFailed}
	}
	u.log.Info("upload complete", zap.Uint64("seq", seq), zap.String("file", f.Name))
	return UploadState{Phase: Succeeded, Payload: f.Name, Message: MsgUploadDone}
}

func (u *Upload) send(ctx context.Context, f File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return u.client.Upload(ctx, f.Name, rc)
}

// clear drops the held file unless another one was selected meanwhile.
func (u *Upload) clear(gen uint64) {
	u.fileMu.Lock()
	defer u.fileMu.Unlock()
	if u.fileGen == gen {
		u.file = nil
	}
}
