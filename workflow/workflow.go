// Package workflow implements the dashboard: file selection, parameters,
// the submission state machine and retrieval of the generated EDI file.
package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/moyoez/edi-client/notify"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
)

// ArtifactTTL is how long a generated file stays in the recent list.
const ArtifactTTL = time.Hour

// SessionSource gives read access to the current session.
type SessionSource interface {
	Current() types.Session
}

// Processor is the remote conversion service.
type Processor interface {
	BaseURL() string
	UploadAndProcess(ctx context.Context, token string, file *types.SelectedFile, params types.SubmissionParams, requestID string) (*types.ProcessResponse, error)
	DownloadEDI(ctx context.Context, token, filename string) (io.ReadCloser, error)
	UserLogs(ctx context.Context, token string) ([]types.ActivityLogEntry, error)
}

type Options struct {
	Clock       tool.Clock
	DownloadDir string
}

// Workflow is the submission state machine. busy serializes submissions:
// Generate is rejected with ErrBusy while one is in flight.
type Workflow struct {
	mu          sync.Mutex
	sess        SessionSource
	proc        Processor
	clock       tool.Clock
	status      *notify.Channel
	files       *FileSelector
	dates       *DateRange
	downloadDir string

	company     types.Company
	docType     types.DocType
	state       types.WorkflowState
	busy        bool
	downloading bool
	modal       types.SuccessModal
	epoch       uint64

	artifacts *ttlworker.Cache[string, types.ArtifactRecord]
	listeners []func()
}

func New(sess SessionSource, proc Processor, status *notify.Channel, opts Options) *Workflow {
	clock := opts.Clock
	if clock == nil {
		clock = tool.SystemClock
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "downloads"
	}
	return &Workflow{
		sess:        sess,
		proc:        proc,
		clock:       clock,
		status:      status,
		files:       &FileSelector{},
		dates:       NewDateRange(clock),
		downloadDir: opts.DownloadDir,
		state:       types.WorkflowState{Phase: types.PhaseIdle},
		artifacts:   ttlworker.NewCache[string, types.ArtifactRecord](ArtifactTTL),
	}
}

// OnChange registers fn to run after every state, field or modal change.
func (w *Workflow) OnChange(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

func (w *Workflow) Status() *notify.Channel { return w.status }
func (w *Workflow) Files() *FileSelector    { return w.files }
func (w *Workflow) Dates() *DateRange       { return w.dates }

// SelectFile validates and selects a dropped or uploaded file.
func (w *Workflow) SelectFile(f types.SelectedFile) (types.SelectedFile, error) {
	if w.Busy() {
		return types.SelectedFile{}, ErrBusy
	}
	selected, err := w.files.SelectCandidate(f)
	if err == nil {
		w.emit()
	}
	return selected, err
}

// SelectPath validates and selects a local file.
func (w *Workflow) SelectPath(path string) (types.SelectedFile, error) {
	if w.Busy() {
		return types.SelectedFile{}, ErrBusy
	}
	selected, err := w.files.SelectPath(path)
	if err == nil {
		w.emit()
	}
	return selected, err
}

// SetCompany sets or (with "") unsets the company.
func (w *Workflow) SetCompany(c types.Company) error {
	if c != "" && !c.Valid() {
		return ErrUnknownCompany
	}
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	w.company = c
	w.mu.Unlock()
	w.emit()
	return nil
}

// SetDocType sets or unsets the EDI type and updates the date range lock.
func (w *Workflow) SetDocType(d types.DocType) error {
	if d != "" && !d.Valid() {
		return ErrUnknownDocType
	}
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	w.docType = d
	w.dates.SetDocType(d)
	w.mu.Unlock()
	w.emit()
	return nil
}

// SetStartDate is a no-op (false) while the range is locked.
func (w *Workflow) SetStartDate(v string) (bool, error) {
	applied, err := w.dates.SetStartDate(v)
	if applied {
		w.emit()
	}
	return applied, err
}

// SetEndDate is a no-op (false) while the range is locked.
func (w *Workflow) SetEndDate(v string) (bool, error) {
	applied, err := w.dates.SetEndDate(v)
	if applied {
		w.emit()
	}
	return applied, err
}

func (w *Workflow) Params() types.SubmissionParams {
	w.mu.Lock()
	company, docType := w.company, w.docType
	w.mu.Unlock()
	start, end := w.dates.Values()
	return types.SubmissionParams{Company: company, DocType: docType, StartDate: start, EndDate: end}
}

// CanSubmit mirrors the enabled state of the generate control.
func (w *Workflow) CanSubmit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy && w.company != "" && w.docType != "" && w.files.Selected() != nil
}

// Generate runs one submission. Missing fields post a status error and leave
// the workflow Idle without any network call.
func (w *Workflow) Generate(ctx context.Context) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	sess := w.sess.Current()
	if !sess.IsAuthenticated {
		w.mu.Unlock()
		return ErrNotAuthenticated
	}

	w.state = types.WorkflowState{Phase: types.PhaseValidating}
	file := w.files.Selected()
	var missing []string
	if file == nil {
		missing = append(missing, "file")
	}
	if w.company == "" {
		missing = append(missing, "company")
	}
	if w.docType == "" {
		missing = append(missing, "edi type")
	}
	if len(missing) > 0 {
		w.state = types.WorkflowState{Phase: types.PhaseIdle}
		w.mu.Unlock()
		w.status.Post(types.StatusError, RequiredFieldsMessage)
		w.emit()
		return &ValidationError{Missing: missing}
	}

	start, end := w.dates.Values()
	params := types.SubmissionParams{Company: w.company, DocType: w.docType, StartDate: start, EndDate: end}
	w.busy = true
	w.state = types.WorkflowState{Phase: types.PhaseSubmitting}
	epoch := w.epoch
	w.mu.Unlock()

	w.status.Post(types.StatusLoading, ProcessingMessage)
	w.emit()

	requestID := tool.GenerateRandomUUID()
	tool.DefaultLogger.Infof("Submitting %s as %s/%s (request %s)", file.Name, params.Company, params.DocType, requestID)
	resp, err := w.proc.UploadAndProcess(ctx, sess.Token, file, params, requestID)

	w.mu.Lock()
	if epoch != w.epoch {
		w.mu.Unlock()
		tool.DefaultLogger.Infof("Dropping result of request %s: dashboard was discarded", requestID)
		return err
	}
	w.busy = false
	if err != nil {
		msg := submitErrorMessage(err)
		w.state = types.WorkflowState{Phase: types.PhaseError, Message: msg}
		w.mu.Unlock()
		tool.DefaultLogger.Errorf("Request %s failed: %v", requestID, err)
		w.status.Post(types.StatusError, msg)
		w.emit()
		return err
	}

	filename := resp.EdiFilename
	w.state = types.WorkflowState{Phase: types.PhaseSuccess, ArtifactID: filename}
	w.modal = types.SuccessModal{Open: true, Filename: filename}
	w.artifacts.Set(filename, types.ArtifactRecord{
		Filename:  filename,
		Company:   params.Company,
		DocType:   params.DocType,
		CreatedAt: w.clock.Now(),
	})
	w.mu.Unlock()

	tool.DefaultLogger.Infof("Request %s generated %s", requestID, filename)
	w.status.Post(types.StatusSuccess, GeneratedMessage)
	w.emit()
	return nil
}

func submitErrorMessage(err error) string {
	if transfer.IsConnectivity(err) {
		return ConnectionErrorMessage
	}
	return transfer.DetailOr(err, ProcessingFailedMessage)
}

// Reset returns to Idle and clears the file, both selections, both dates and
// the live notification. It is refused while a submission is in flight.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	w.resetLocked()
	w.mu.Unlock()
	w.status.Clear()
	w.emit()
	return nil
}

// Discard drops all dashboard state, including the modal and any in-flight
// result. Used on logout.
func (w *Workflow) Discard() {
	w.mu.Lock()
	w.resetLocked()
	w.busy = false
	w.downloading = false
	w.modal = types.SuccessModal{}
	w.epoch++
	w.mu.Unlock()
	w.status.Clear()
	w.emit()
}

func (w *Workflow) resetLocked() {
	w.files.Clear()
	w.company = ""
	w.docType = ""
	w.dates.Reset()
	w.state = types.WorkflowState{Phase: types.PhaseIdle}
}

func (w *Workflow) State() types.WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Modal() types.SuccessModal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.modal
}

// CloseModal hides the confirmation affordance without downloading.
func (w *Workflow) CloseModal() {
	w.mu.Lock()
	w.modal.Open = false
	w.mu.Unlock()
	w.emit()
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Snapshot fills the dashboard part of a snapshot; session and liveness are left to the caller.
func (w *Workflow) Snapshot() types.DashboardSnapshot {
	params := w.Params()
	w.mu.Lock()
	defer w.mu.Unlock()
	file := w.files.Selected()
	return types.DashboardSnapshot{
		File:      file,
		Params:    params,
		DatesLock: w.dates.Locked(),
		State:     w.state,
		Busy:      w.busy,
		CanSubmit: !w.busy && file != nil && w.company != "" && w.docType != "",
		Status:    w.status.Current(),
		Modal:     w.modal,
	}
}

// UserLogs returns the signed-in user's recent activity from the service.
func (w *Workflow) UserLogs(ctx context.Context) ([]types.ActivityLogEntry, error) {
	sess := w.sess.Current()
	if !sess.IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return w.proc.UserLogs(ctx, sess.Token)
}

func (w *Workflow) emit() {
	w.mu.Lock()
	listeners := append([]func(){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// IsValidation reports whether err is a missing-field rejection.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
