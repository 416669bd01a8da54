package workflow

import (
	"context"
	"sort"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
	"github.com/skip2/go-qrcode"
)

// DownloadResult describes a saved EDI file.
type DownloadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
}

// Download saves the file announced by the success modal. On success the
// modal closes; on failure it stays open so the user can retry.
func (w *Workflow) Download(ctx context.Context) (*DownloadResult, error) {
	w.mu.Lock()
	filename := w.modal.Filename
	if filename == "" {
		filename = w.state.ArtifactID
	}
	w.mu.Unlock()
	if filename == "" {
		return nil, ErrNoArtifact
	}
	return w.DownloadArtifact(ctx, filename)
}

// DownloadArtifact fetches filename from the service and writes it into the
// download folder under the same name.
func (w *Workflow) DownloadArtifact(ctx context.Context, filename string) (*DownloadResult, error) {
	sess := w.sess.Current()
	if !sess.IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	w.mu.Lock()
	if w.downloading {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.downloading = true
	epoch := w.epoch
	w.mu.Unlock()

	result, err := w.fetch(ctx, sess.Token, filename)

	w.mu.Lock()
	if epoch != w.epoch {
		w.mu.Unlock()
		return result, err
	}
	w.downloading = false
	if err != nil {
		w.mu.Unlock()
		msg := DownloadFailure(err)
		tool.DefaultLogger.Errorf("Download of %s failed: %v", filename, err)
		w.status.Post(types.StatusError, msg)
		w.emit()
		return nil, err
	}
	if w.modal.Filename == filename {
		w.modal.Open = false
	}
	if rec := w.artifacts.Get(filename); rec.Filename != "" {
		rec.Downloaded = true
		w.artifacts.Set(filename, rec)
	}
	w.mu.Unlock()

	tool.DefaultLogger.Infof("Saved %s to %s (%d bytes)", filename, result.Path, result.Bytes)
	w.status.Post(types.StatusSuccess, DownloadedMessage)
	w.emit()
	return result, nil
}

// DownloadFailure is the status message posted for a failed download.
func DownloadFailure(err error) string {
	if transfer.IsConnectivity(err) {
		return DownloadErrorMessage
	}
	return DownloadFailedMessage
}

func (w *Workflow) fetch(ctx context.Context, token, filename string) (*DownloadResult, error) {
	body, err := w.proc.DownloadEDI(ctx, token, filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()
	path, n, err := tool.SaveStream(ctx, w.downloadDir, filename, body)
	if err != nil {
		return nil, err
	}
	return &DownloadResult{Filename: filename, Path: path, Bytes: n}, nil
}

// Recent lists files generated in the last hour, newest first.
func (w *Workflow) Recent() []types.ArtifactRecord {
	var list []types.ArtifactRecord
	_ = w.artifacts.Range(func(_ string, rec types.ArtifactRecord) error {
		list = append(list, rec)
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// QRCode encodes the remote download URL of filename as a PNG.
func (w *Workflow) QRCode(filename string, size int) ([]byte, error) {
	if filename == "" {
		return nil, ErrNoArtifact
	}
	return qrcode.Encode(tool.BuildDownloadURL(w.proc.BaseURL(), filename), qrcode.Medium, size)
}
