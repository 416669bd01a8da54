package mockserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/edi-client/transfer"
	"github.com/moyoez/edi-client/types"
)

func newTestService(t *testing.T) (*transfer.Client, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(New(Options{Secret: "test", Now: func() time.Time { return now }}).Handler())
	return transfer.NewClient(srv.URL, srv.Client()), srv.Close
}

func TestFullConversionFlow(t *testing.T) {
	client, closeFn := newTestService(t)
	defer closeFn()
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	login, err := client.Login(ctx, types.DemoCredentials["admin"])
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.UserName != "Admin User" {
		t.Fatalf("unexpected user name %q", login.UserName)
	}

	file := &types.SelectedFile{Name: "orders.xlsx", Data: []byte("PK spreadsheet")}
	params := types.SubmissionParams{Company: types.CompanyRenesas, DocType: types.DocTypePO, StartDate: "2026-03-01"}
	resp, err := client.UploadAndProcess(ctx, login.Token, file, params, "req-1")
	if err != nil {
		t.Fatalf("UploadAndProcess: %v", err)
	}
	if resp.EdiFilename != "Renesas_PO_20260315_103000.edi" {
		t.Fatalf("unexpected filename %q", resp.EdiFilename)
	}

	body, err := client.DownloadEDI(ctx, login.Token, resp.EdiFilename)
	if err != nil {
		t.Fatalf("DownloadEDI: %v", err)
	}
	content, _ := io.ReadAll(body)
	_ = body.Close()
	if !strings.HasPrefix(string(content), "ISA*") || !strings.Contains(string(content), "N1*ST*Renesas~") {
		t.Fatalf("unexpected EDI content %q", content)
	}

	logs, err := client.UserLogs(ctx, login.Token)
	if err != nil {
		t.Fatalf("UserLogs: %v", err)
	}
	var actions []string
	for _, entry := range logs {
		actions = append(actions, entry.Action)
	}
	want := "LOGIN,FILE_UPLOADED,PROCESSING_STARTED,EDI_GENERATED,FILE_DOWNLOADED"
	if strings.Join(actions, ",") != want {
		t.Fatalf("unexpected activity %v", actions)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	client, closeFn := newTestService(t)
	defer closeFn()

	_, err := client.Login(context.Background(), types.Credentials{Email: "admin@company.com", Password: "wrong"})
	var svcErr *transfer.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusUnauthorized || svcErr.Detail != "Invalid credentials" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestUploadRejections(t *testing.T) {
	client, closeFn := newTestService(t)
	defer closeFn()
	ctx := context.Background()
	login, err := client.Login(ctx, types.DemoCredentials["user"])
	if err != nil {
		t.Fatal(err)
	}

	file := &types.SelectedFile{Name: "orders.xlsx", Data: []byte("x")}
	_, err = client.UploadAndProcess(ctx, login.Token, file, types.SubmissionParams{Company: "Acme", DocType: types.DocTypePO}, "")
	if got := transfer.DetailOr(err, ""); got != "Invalid company" {
		t.Fatalf("expected Invalid company, got %q (%v)", got, err)
	}

	_, err = client.UploadAndProcess(ctx, "not-a-token", file, types.SubmissionParams{Company: "Osram", DocType: types.DocTypePOS}, "")
	if got := transfer.DetailOr(err, ""); got != "Invalid token" {
		t.Fatalf("expected Invalid token, got %q", got)
	}

	_, err = client.DownloadEDI(ctx, login.Token, "missing.edi")
	var svcErr *transfer.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestActivityLogIsCapped(t *testing.T) {
	s := newStore()
	for i := 0; i < MaxLogEntries+10; i++ {
		s.record("user1@company.com", "LOGIN", nil, time.Now())
	}
	if got := len(s.recent("user1@company.com")); got != MaxLogEntries {
		t.Fatalf("expected %d entries, got %d", MaxLogEntries, got)
	}
	if len(s.recent("user2@company.com")) != 0 {
		t.Fatal("logs leaked between users")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := generateToken("secret", "admin@company.com", now)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := validateToken("secret", token, now)
	if err != nil || claims.Email != "admin@company.com" {
		t.Fatalf("unexpected claims %+v (%v)", claims, err)
	}
	if _, err := validateToken("other", token, now); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
	if _, err := validateToken("secret", token, now.Add(25*time.Hour)); err == nil {
		t.Fatal("expired token accepted")
	}
}
