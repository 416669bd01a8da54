package types

import (
	"bytes"
	"io"
	"os"
)

type Company string

const (
	CompanyRenesas Company = "Renesas"
	CompanyOsram   Company = "Osram"
)

var Companies = []Company{CompanyRenesas, CompanyOsram}

// Valid reports whether c is one of the known companies.
func (c Company) Valid() bool {
	for _, known := range Companies {
		if c == known {
			return true
		}
	}
	return false
}

type DocType string

const (
	DocTypePO        DocType = "PO"
	DocTypePOS       DocType = "POS"
	DocTypeClaim     DocType = "CLAIM"
	DocTypeInventory DocType = "Inventory"
)

var DocTypes = []DocType{DocTypePO, DocTypePOS, DocTypeClaim, DocTypeInventory}

func (d DocType) Valid() bool {
	for _, known := range DocTypes {
		if d == known {
			return true
		}
	}
	return false
}

// Label returns the human readable name shown next to the type code.
func (d DocType) Label() string {
	switch d {
	case DocTypePO:
		return "Purchase Order"
	case DocTypePOS:
		return "Point of Sale"
	case DocTypeClaim:
		return "Claim"
	case DocTypeInventory:
		return "Inventory"
	default:
		return string(d)
	}
}

// DateLayout is the ISO date format used by the date inputs and the wire.
const DateLayout = "2006-01-02"

// SubmissionParams are the processing parameters sent with a spreadsheet.
// Empty dates are omitted from the request.
type SubmissionParams struct {
	Company   Company `json:"company"`
	DocType   DocType `json:"docType"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

// SelectedFile is a spreadsheet that passed the extension allow-list.
// Either Data (dropped/uploaded content) or Path (browsed local file) is set.
type SelectedFile struct {
	Name string `json:"name"`
	Size int64  `json:"sizeBytes"`
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// Open returns a reader over the file content.
func (f *SelectedFile) Open() (io.ReadCloser, error) {
	if f.Data != nil {
		return io.NopCloser(bytes.NewReader(f.Data)), nil
	}
	return os.Open(f.Path)
}

// SizeMB is the size as displayed next to the file name.
func (f *SelectedFile) SizeMB() float64 {
	return float64(f.Size) / 1024 / 1024
}

// ProcessResponse is the body of a successful POST /upload-and-process.
type ProcessResponse struct {
	Message     string `json:"message,omitempty"`
	EdiFilename string `json:"edi_filename"`
}

// ErrorDetail is the error body shape of the conversion service.
// Detail is usually a string but validation failures carry a list.
type ErrorDetail struct {
	Detail any `json:"detail"`
}
