package workflow

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/moyoez/edi-client/notify"
	"github.com/moyoez/edi-client/tool/clocktest"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
)

type staticSession struct {
	mu   sync.Mutex
	sess types.Session
}

func (s *staticSession) Current() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

type fakeProcessor struct {
	mu          sync.Mutex
	uploads     int
	lastParams  types.SubmissionParams
	lastFile    string
	lastToken   string
	lastRequest string
	gate        chan struct{}
	gates       []chan struct{}
	entered     chan struct{}
	resp        *types.ProcessResponse
	err         error
	download    string
	downloadErr error
	downloads   int
	dlGates     []chan struct{}
	dlEntered   chan struct{}
}

func (p *fakeProcessor) BaseURL() string { return "http://edi.example:8000" }

func (p *fakeProcessor) UploadAndProcess(ctx context.Context, token string, file *types.SelectedFile, params types.SubmissionParams, requestID string) (*types.ProcessResponse, error) {
	p.mu.Lock()
	p.uploads++
	p.lastParams = params
	p.lastFile = file.Name
	p.lastToken = token
	p.lastRequest = requestID
	gate, entered := p.gate, p.entered
	if n := p.uploads - 1; n < len(p.gates) {
		gate = p.gates[n]
	}
	p.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return p.resp, p.err
}

func (p *fakeProcessor) DownloadEDI(ctx context.Context, token, filename string) (io.ReadCloser, error) {
	p.mu.Lock()
	p.downloads++
	var gate chan struct{}
	if n := p.downloads - 1; n < len(p.dlGates) {
		gate = p.dlGates[n]
	}
	entered := p.dlEntered
	p.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	return io.NopCloser(strings.NewReader(p.download)), nil
}

func (p *fakeProcessor) UserLogs(ctx context.Context, token string) ([]types.ActivityLogEntry, error) {
	return []types.ActivityLogEntry{{User: "admin@company.com", Action: "LOGIN"}}, nil
}

func (p *fakeProcessor) Uploads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uploads
}

type fixture struct {
	wf     *Workflow
	proc   *fakeProcessor
	sess   *staticSession
	status *notify.Channel
	clock  *clocktest.Clock
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clocktest.New(time.Date(2026, 3, 15, 10, 30, 0, 0, time.Local))
	sess := &staticSession{sess: types.Session{IsAuthenticated: true, Token: "tok-123", UserName: "Admin User"}}
	proc := &fakeProcessor{resp: &types.ProcessResponse{EdiFilename: "out.edi"}, download: "ISA*00~"}
	status := notify.NewChannel(clock)
	dir := t.TempDir()
	wf := New(sess, proc, status, Options{Clock: clock, DownloadDir: dir})
	return &fixture{wf: wf, proc: proc, sess: sess, status: status, clock: clock, dir: dir}
}

func (f *fixture) fill(t *testing.T) {
	t.Helper()
	if _, err := f.wf.SelectFile(types.SelectedFile{Name: "orders.xlsx", Data: []byte("PK\x03\x04")}); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if err := f.wf.SetCompany(types.CompanyRenesas); err != nil {
		t.Fatalf("SetCompany: %v", err)
	}
	if err := f.wf.SetDocType(types.DocTypePO); err != nil {
		t.Fatalf("SetDocType: %v", err)
	}
}

func TestGenerateMissingFieldsMakesNoNetworkCall(t *testing.T) {
	cases := map[string]func(f *fixture){
		"no file": func(f *fixture) {
			_ = f.wf.SetCompany(types.CompanyOsram)
			_ = f.wf.SetDocType(types.DocTypePOS)
		},
		"no company": func(f *fixture) {
			_, _ = f.wf.SelectFile(types.SelectedFile{Name: "a.xls", Data: []byte("x")})
			_ = f.wf.SetDocType(types.DocTypePOS)
		},
		"no edi type": func(f *fixture) {
			_, _ = f.wf.SelectFile(types.SelectedFile{Name: "a.xls", Data: []byte("x")})
			_ = f.wf.SetCompany(types.CompanyOsram)
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			setup(f)
			if f.wf.CanSubmit() {
				t.Fatal("CanSubmit should be false with a missing field")
			}

			err := f.wf.Generate(context.Background())
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if f.proc.Uploads() != 0 {
				t.Fatal("validation failure must not reach the network")
			}
			if got := f.status.Current(); got.Kind != types.StatusError || got.Message != "Please fill in all required fields" {
				t.Fatalf("unexpected status %+v", got)
			}
			if got := f.wf.State().Phase; got != types.PhaseIdle {
				t.Fatalf("expected idle after validation failure, got %s", got)
			}
		})
	}
}

func TestGenerateSuccessOpensModal(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	if !f.wf.CanSubmit() {
		t.Fatal("CanSubmit should be true once file, company and type are set")
	}

	if err := f.wf.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	state := f.wf.State()
	if state.Phase != types.PhaseSuccess || state.ArtifactID != "out.edi" {
		t.Fatalf("unexpected state %+v", state)
	}
	if modal := f.wf.Modal(); !modal.Open || modal.Filename != "out.edi" {
		t.Fatalf("unexpected modal %+v", modal)
	}
	if got := f.status.Current(); got.Kind != types.StatusSuccess || got.Message != GeneratedMessage {
		t.Fatalf("unexpected status %+v", got)
	}
	if f.proc.lastToken != "tok-123" || f.proc.lastFile != "orders.xlsx" || f.proc.lastRequest == "" {
		t.Fatalf("request not built from session and selection: %+v", f.proc)
	}
	if recent := f.wf.Recent(); len(recent) != 1 || recent[0].Filename != "out.edi" {
		t.Fatalf("unexpected recent list %+v", recent)
	}

	f.clock.Advance(notify.ClearDelay)
	if got := f.status.Current(); !got.Empty() {
		t.Fatalf("success notification should clear after 5s, got %+v", got)
	}
}

func TestGenerateServiceRejectionUsesDetail(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.proc.resp = nil
	f.proc.err = &transfer.ServiceError{Op: "upload-and-process", StatusCode: 422, Detail: "Invalid company"}

	if err := f.wf.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	state := f.wf.State()
	if state.Phase != types.PhaseError || state.Message != "Invalid company" {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := f.status.Current(); got.Message != "Invalid company" {
		t.Fatalf("status should carry the server detail, got %q", got.Message)
	}
	if f.wf.Modal().Open {
		t.Fatal("modal must stay closed on failure")
	}
}

func TestGenerateServiceRejectionWithoutDetail(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.proc.resp = nil
	f.proc.err = &transfer.ServiceError{Op: "upload-and-process", StatusCode: 500}

	_ = f.wf.Generate(context.Background())
	if got := f.wf.State().Message; got != ProcessingFailedMessage {
		t.Fatalf("expected generic failure, got %q", got)
	}
}

func TestGenerateConnectivityFailure(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.proc.resp = nil
	f.proc.err = &transfer.ConnectivityError{Op: "upload-and-process", URL: "http://x", Err: errors.New("connection refused")}

	_ = f.wf.Generate(context.Background())
	state := f.wf.State()
	if state.Phase != types.PhaseError || state.Message != ConnectionErrorMessage {
		t.Fatalf("unexpected state %+v", state)
	}
	// No automatic retry; the user can submit again.
	if f.proc.Uploads() != 1 || f.wf.Busy() {
		t.Fatalf("expected a single attempt and an idle guard, uploads=%d", f.proc.Uploads())
	}
}

func TestGenerateRequiresSession(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.sess.sess = types.Session{}
	if err := f.wf.Generate(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestBusyGuardSerializesSubmissions(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.proc.gate = make(chan struct{})
	f.proc.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- f.wf.Generate(context.Background()) }()
	<-f.proc.entered

	if !f.wf.Busy() || f.wf.State().Phase != types.PhaseSubmitting {
		t.Fatalf("expected submitting while in flight, got %+v", f.wf.State())
	}
	if got := f.status.Current(); got.Kind != types.StatusLoading || got.Message != ProcessingMessage {
		t.Fatalf("unexpected status while in flight %+v", got)
	}
	if err := f.wf.Generate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("second submission: expected ErrBusy, got %v", err)
	}
	if _, err := f.wf.SelectFile(types.SelectedFile{Name: "b.xlsx"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("file change while busy: expected ErrBusy, got %v", err)
	}
	if err := f.wf.SetCompany(types.CompanyOsram); !errors.Is(err, ErrBusy) {
		t.Fatalf("company change while busy: expected ErrBusy, got %v", err)
	}
	if err := f.wf.Reset(); !errors.Is(err, ErrBusy) {
		t.Fatalf("reset while busy: expected ErrBusy, got %v", err)
	}

	close(f.proc.gate)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if f.proc.Uploads() != 1 {
		t.Fatalf("expected one upload, got %d", f.proc.Uploads())
	}
}

func TestDiscardDropsInFlightResult(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.proc.gate = make(chan struct{})
	f.proc.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- f.wf.Generate(context.Background()) }()
	<-f.proc.entered

	f.wf.Discard()
	close(f.proc.gate)
	<-done

	if got := f.wf.State().Phase; got != types.PhaseIdle {
		t.Fatalf("late result must not change a discarded dashboard, got %s", got)
	}
	if f.wf.Modal().Open {
		t.Fatal("modal opened after discard")
	}
	if f.wf.Files().Selected() != nil {
		t.Fatal("file survived discard")
	}
}

func TestInventoryPinsDatesToToday(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	if _, err := f.wf.SetStartDate("2026-01-01"); err != nil {
		t.Fatal(err)
	}

	if err := f.wf.SetDocType(types.DocTypeInventory); err != nil {
		t.Fatal(err)
	}
	params := f.wf.Params()
	if params.StartDate != "2026-03-15" || params.EndDate != "2026-03-15" {
		t.Fatalf("expected both dates pinned to today, got %+v", params)
	}
	applied, err := f.wf.SetEndDate("2026-04-01")
	if err != nil || applied {
		t.Fatalf("edit while locked should be a no-op, applied=%v err=%v", applied, err)
	}

	if err := f.wf.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.proc.lastParams.StartDate != "2026-03-15" || f.proc.lastParams.DocType != types.DocTypeInventory {
		t.Fatalf("unexpected submitted params %+v", f.proc.lastParams)
	}

	// Leaving Inventory unlocks but keeps the pinned values.
	_ = f.wf.SetDocType(types.DocTypeClaim)
	if applied, _ := f.wf.SetEndDate("2026-04-01"); !applied {
		t.Fatal("edit should apply once unlocked")
	}
	if got := f.wf.Params(); got.StartDate != "2026-03-15" || got.EndDate != "2026-04-01" {
		t.Fatalf("unexpected params after unlock %+v", got)
	}
}

func TestDownloadSavesFileAndClosesModal(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	if err := f.wf.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := f.wf.Download(context.Background())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if result.Path != filepath.Join(f.dir, "out.edi") {
		t.Fatalf("file not saved under the server name: %s", result.Path)
	}
	content, err := os.ReadFile(result.Path)
	if err != nil || string(content) != "ISA*00~" {
		t.Fatalf("unexpected saved content %q (%v)", content, err)
	}
	if f.wf.Modal().Open {
		t.Fatal("modal should close after a successful download")
	}
	if got := f.status.Current(); got.Message != DownloadedMessage {
		t.Fatalf("unexpected status %+v", got)
	}
	if recent := f.wf.Recent(); len(recent) != 1 || !recent[0].Downloaded {
		t.Fatalf("artifact not marked downloaded: %+v", recent)
	}
}

func TestDownloadFailureKeepsModalOpen(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	if err := f.wf.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.proc.downloadErr = &transfer.ServiceError{Op: "download-edi", StatusCode: 404, Detail: "EDI file not found"}
	if _, err := f.wf.Download(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !f.wf.Modal().Open {
		t.Fatal("modal must stay open so the user can retry")
	}
	if got := f.status.Current(); got.Kind != types.StatusError || got.Message != DownloadFailedMessage {
		t.Fatalf("unexpected status %+v", got)
	}

	f.proc.downloadErr = &transfer.ConnectivityError{Op: "download-edi", Err: errors.New("reset")}
	_, _ = f.wf.Download(context.Background())
	if got := f.status.Current(); got.Message != DownloadErrorMessage {
		t.Fatalf("unexpected status %+v", got)
	}

	f.proc.downloadErr = nil
	if _, err := f.wf.Download(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.wf.Modal().Open {
		t.Fatal("modal should close after the retry succeeds")
	}
}

func TestDownloadWithoutArtifact(t *testing.T) {
	f := newFixture(t)
	if _, err := f.wf.Download(context.Background()); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("expected ErrNoArtifact, got %v", err)
	}
}

func TestCloseModalAndReset(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	_ = f.wf.Generate(context.Background())

	f.wf.CloseModal()
	if f.wf.Modal().Open {
		t.Fatal("modal still open")
	}

	if err := f.wf.Reset(); err != nil {
		t.Fatal(err)
	}
	snap := f.wf.Snapshot()
	if snap.File != nil || snap.Params.Company != "" || snap.Params.DocType != "" || snap.State.Phase != types.PhaseIdle {
		t.Fatalf("reset left state behind: %+v", snap)
	}
	if !snap.Status.Empty() {
		t.Fatalf("reset should clear the status channel, got %+v", snap.Status)
	}
}

func TestSetParamsRejectsUnknownValues(t *testing.T) {
	f := newFixture(t)
	if err := f.wf.SetCompany("Acme"); !errors.Is(err, ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if err := f.wf.SetDocType("INVOICE"); !errors.Is(err, ErrUnknownDocType) {
		t.Fatalf("expected ErrUnknownDocType, got %v", err)
	}
}

func TestQRCodeEncodesDownloadURL(t *testing.T) {
	f := newFixture(t)
	png, err := f.wf.QRCode("out.edi", 128)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatal("expected a PNG image")
	}
	if _, err := f.wf.QRCode("", 128); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("expected ErrNoArtifact, got %v", err)
	}
}

func TestDiscardedResultKeepsNewSubmissionBusy(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	gateA, gateB := make(chan struct{}), make(chan struct{})
	f.proc.gates = []chan struct{}{gateA, gateB}
	f.proc.entered = make(chan struct{}, 2)

	doneA := make(chan error, 1)
	go func() { doneA <- f.wf.Generate(context.Background()) }()
	<-f.proc.entered

	// Logout and a fresh login while A is still in flight.
	f.wf.Discard()
	f.fill(t)
	doneB := make(chan error, 1)
	go func() { doneB <- f.wf.Generate(context.Background()) }()
	<-f.proc.entered

	close(gateA)
	<-doneA

	if !f.wf.Busy() {
		t.Fatal("stale result cleared the busy guard of the running submission")
	}
	if err := f.wf.Generate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while B is in flight, got %v", err)
	}
	if f.proc.Uploads() != 2 {
		t.Fatalf("expected two uploads, got %d", f.proc.Uploads())
	}

	close(gateB)
	if err := <-doneB; err != nil {
		t.Fatalf("Generate B: %v", err)
	}
	if got := f.wf.State().Phase; got != types.PhaseSuccess || f.wf.Busy() {
		t.Fatalf("expected B to finish cleanly, phase=%s busy=%v", got, f.wf.Busy())
	}
}

func TestDiscardedDownloadKeepsNewDownloadGuarded(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	if err := f.wf.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	gateA, gateB := make(chan struct{}), make(chan struct{})
	f.proc.dlGates = []chan struct{}{gateA, gateB}
	f.proc.dlEntered = make(chan struct{}, 2)

	doneA := make(chan error, 1)
	go func() {
		_, err := f.wf.DownloadArtifact(context.Background(), "out.edi")
		doneA <- err
	}()
	<-f.proc.dlEntered

	f.wf.Discard()
	doneB := make(chan error, 1)
	go func() {
		_, err := f.wf.DownloadArtifact(context.Background(), "out.edi")
		doneB <- err
	}()
	<-f.proc.dlEntered

	close(gateA)
	<-doneA
	if _, err := f.wf.DownloadArtifact(context.Background(), "out.edi"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while download B is in flight, got %v", err)
	}

	close(gateB)
	if err := <-doneB; err != nil {
		t.Fatalf("download B: %v", err)
	}
}
