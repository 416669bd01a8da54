package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 * 1024

// Client talks to the conversion service rooted at a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses tool.NewHTTPClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = tool.NewHTTPClient()
	}
	return &Client{
		baseURL:    tool.TrimBaseURL(baseURL),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials to /login.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*types.LoginResponse, error) {
	url := tool.BuildLoginURL(c.baseURL)
	payload, err := sonic.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %v", err)
	}
	req, err := tool.NewHTTPReqWithApplication(http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %v", err)
	}

	body, err := c.doJSON(req, "login")
	if err != nil {
		return nil, err
	}
	var resp types.LoginResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %v", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response missing token")
	}
	tool.DefaultLogger.Infof("Login succeeded for %s", creds.Email)
	return &resp, nil
}

// Health probes /health. Any 2xx is healthy; the payload is ignored.
func (c *Client) Health(ctx context.Context) error {
	url := tool.BuildHealthURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectivityError{Op: "health", URL: url, Err: err}
	}
	defer closeBody(resp)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	if !tool.IsSuccess(resp.StatusCode) {
		return &ServiceError{Op: "health", StatusCode: resp.StatusCode}
	}
	return nil
}

// UploadAndProcess submits the spreadsheet and parameters as one multipart request.
// Dates are only sent when non-empty.
func (c *Client) UploadAndProcess(ctx context.Context, token string, file *types.SelectedFile, params types.SubmissionParams, requestID string) (*types.ProcessResponse, error) {
	if file == nil {
		return nil, fmt.Errorf("invalid parameters: file must not be nil")
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", file.Name, err)
	}

	url := tool.BuildUploadAndProcessURL(c.baseURL)
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer func() {
			if err := src.Close(); err != nil {
				tool.DefaultLogger.Errorf("Failed to close %s: %v", file.Name, err)
			}
		}()
		pw.CloseWithError(writeSubmission(mw, file.Name, src, params))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	tool.WithBearer(req, token)

	tool.DefaultLogger.Debugf("Sending %s (%d bytes) to %s as %s/%s", file.Name, file.Size, url, params.Company, params.DocType)
	body, err := c.doJSON(req, "upload-and-process")
	if err != nil {
		return nil, err
	}
	var resp types.ProcessResponse
	if err := sonic.Unmarshal(body, &resp); err != nil || resp.EdiFilename == "" {
		tool.DefaultLogger.Warnf("upload-and-process returned no edi_filename: %s", string(body))
		return nil, &ServiceError{Op: "upload-and-process", StatusCode: http.StatusOK}
	}
	return &resp, nil
}

func writeSubmission(mw *multipart.Writer, name string, src io.Reader, params types.SubmissionParams) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	fields := [][2]string{
		{"make_company", string(params.Company)},
		{"edi_type", string(params.DocType)},
	}
	if params.StartDate != "" {
		fields = append(fields, [2]string{"start_date", params.StartDate})
	}
	if params.EndDate != "" {
		fields = append(fields, [2]string{"end_date", params.EndDate})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	return mw.Close()
}

// DownloadEDI opens the generated file. The caller must close the returned body.
func (c *Client) DownloadEDI(ctx context.Context, token, filename string) (io.ReadCloser, error) {
	url := tool.BuildDownloadURL(c.baseURL, filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %v", err)
	}
	tool.WithBearer(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: "download-edi", URL: url, Err: err}
	}
	if !tool.IsSuccess(resp.StatusCode) {
		defer closeBody(resp)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{Op: "download-edi", StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}
	return resp.Body, nil
}

// UserLogs fetches the caller's recent activity log.
func (c *Client) UserLogs(ctx context.Context, token string) ([]types.ActivityLogEntry, error) {
	url := tool.BuildUserLogsURL(c.baseURL)
	req, err := tool.NewHTTPReqWithApplication(http.NewRequestWithContext(ctx, http.MethodGet, url, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create user-logs request: %v", err)
	}
	tool.WithBearer(req, token)

	body, err := c.doJSON(req, "user-logs")
	if err != nil {
		return nil, err
	}
	var resp types.UserLogsResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse user-logs response: %v", err)
	}
	return resp.Logs, nil
}

// doJSON sends req and returns the body of a 2xx answer.
func (c *Client) doJSON(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer closeBody(resp)

	if !tool.IsSuccess(resp.StatusCode) {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			tool.DefaultLogger.Warnf("Failed to read %s error body: %v", op, readErr)
		}
		svcErr := &ServiceError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		tool.DefaultLogger.Warnf("%v", svcErr)
		return nil, svcErr
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Op: op, URL: req.URL.String(), Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
	}
}
