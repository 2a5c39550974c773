package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"sync"
	"time"

	"joblink/internal/domain/entity"
	"joblink/pkg/errors"
	"joblink/pkg/logger"
)

// Uploader hands a fully reassembled file to blob storage and returns the
// public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error)
}

// maxUploadChunks caps the chunk slot array; totalChunks comes off the wire
// and must never size an allocation unchecked.
const maxUploadChunks = 1024

type pendingUpload struct {
	name       string
	mimeType   string
	chunks     [][]byte
	received   int
	lastActive time.Time
}

// UploadAssembler reconstructs files sent as ordered base64 chunks. Entries
// are keyed by a client-generated upload id rather than the file name, so
// concurrent uploads of same-named files cannot collide.
type UploadAssembler struct {
	mu          sync.Mutex
	pending     map[string]*pendingUpload
	uploader    Uploader
	idleTimeout time.Duration
	now         func() time.Time
}

func NewUploadAssembler(uploader Uploader, idleTimeout time.Duration) *UploadAssembler {
	return &UploadAssembler{
		pending:     make(map[string]*pendingUpload),
		uploader:    uploader,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// AddChunk stores one chunk. When the last missing chunk arrives, the slots
// are concatenated in index order, uploaded, and the entry cleared; the
// returned descriptor is non-nil exactly once per upload.
func (a *UploadAssembler) AddChunk(ctx context.Context, in FileChunkPayload) (*entity.FileDescriptor, error) {
	if in.TotalChunks > maxUploadChunks {
		return nil, errors.BadRequest("too many chunks for one upload", nil)
	}

	raw, err := base64.StdEncoding.DecodeString(in.Payload)
	if err != nil {
		return nil, errors.BadRequest("chunk payload is not valid base64", err)
	}

	a.mu.Lock()
	upload, ok := a.pending[in.UploadID]
	if !ok {
		upload = &pendingUpload{
			name:     in.Name,
			mimeType: in.MimeType,
			chunks:   make([][]byte, in.TotalChunks),
		}
		a.pending[in.UploadID] = upload
	}

	if in.TotalChunks != len(upload.chunks) || in.ChunkIndex >= len(upload.chunks) {
		a.mu.Unlock()
		return nil, errors.BadRequest("chunk index out of range", nil)
	}

	if upload.chunks[in.ChunkIndex] == nil {
		upload.received++
	}
	upload.chunks[in.ChunkIndex] = raw
	upload.lastActive = a.now()

	if upload.received < len(upload.chunks) {
		a.mu.Unlock()
		return nil, nil
	}

	delete(a.pending, in.UploadID)
	a.mu.Unlock()

	var buf bytes.Buffer
	for _, chunk := range upload.chunks {
		buf.Write(chunk)
	}

	url, err := a.uploader.Upload(ctx, buf.Bytes(), upload.name, upload.mimeType)
	if err != nil {
		return nil, errors.Internal("file upload failed", err)
	}

	return &entity.FileDescriptor{
		URL:      url,
		Name:     upload.name,
		MimeType: upload.mimeType,
	}, nil
}

// SweepIdle abandons uploads that have not seen a chunk within the idle
// timeout and reports how many were dropped.
func (a *UploadAssembler) SweepIdle() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	dropped := 0
	for id, upload := range a.pending {
		if now.Sub(upload.lastActive) > a.idleTimeout {
			delete(a.pending, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps idle uploads periodically until ctx is cancelled.
func (a *UploadAssembler) Run(ctx context.Context) {
	ticker := time.NewTicker(a.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := a.SweepIdle(); n > 0 {
				logger.Info("upload assembler: dropped %d idle uploads", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
