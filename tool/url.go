package tool

import (
	"fmt"
	"net/url"
)

func BuildLoginURL(baseURL string) string {
	return TrimBaseURL(baseURL) + "/login"
}

func BuildHealthURL(baseURL string) string {
	return TrimBaseURL(baseURL) + "/health"
}

func BuildUploadAndProcessURL(baseURL string) string {
	return TrimBaseURL(baseURL) + "/upload-and-process"
}

// BuildDownloadURL builds /download-edi/{filename}, escaping the filename as one path segment.
func BuildDownloadURL(baseURL, filename string) string {
	return fmt.Sprintf("%s/download-edi/%s", TrimBaseURL(baseURL), url.PathEscape(filename))
}

func BuildUserLogsURL(baseURL string) string {
	return TrimBaseURL(baseURL) + "/user-logs"
}

// HostFromURL returns the bare host name of baseURL, or "" if it cannot be parsed.
func HostFromURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
