package mockserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/moyoez/edi-client/types"
)

// renderEnvelope produces a placeholder interchange for the given parameters.
// The body carries no converted spreadsheet data, only the envelope segments.
func renderEnvelope(company types.Company, docType types.DocType, sourceBytes int64, at time.Time) string {
	stamp := at.Format("20060102150405")
	date, clock := stamp[:8], stamp[8:12]
	if company == types.CompanyOsram && docType == types.DocTypePOS {
		return strings.Join([]string{
			fmt.Sprintf("UNB+UNOC:3+SENDER:14+RECEIVER:14+%s:%s+%s++ORDERS'", date, clock, stamp),
			"UNH+1+ORDERS:D:03B:UN:EAN008'",
			fmt.Sprintf("BGM+220+POS%s+9'", stamp),
			fmt.Sprintf("DTM+137:%s:102'", date),
			fmt.Sprintf("QTY+21:%d'", sourceBytes),
			"UNT+5+1'",
			fmt.Sprintf("UNZ+1+%s'", stamp),
		}, "\n")
	}
	group := string(docType)
	if len(group) > 2 {
		group = group[:2]
	}
	return strings.Join([]string{
		fmt.Sprintf("ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *%s*%s*U*00401*%s*0*P*>~", stamp[2:8], clock, stamp),
		fmt.Sprintf("GS*%s*SENDER*RECEIVER*%s*%s*%s*X*004010~", strings.ToUpper(group), date, clock, stamp),
		"ST*850*0001~",
		fmt.Sprintf("BEG*00*SA*%s%s**%s~", docType, stamp, date),
		fmt.Sprintf("N1*ST*%s~", company),
		fmt.Sprintf("PO1*001*%d*EA*10.00**BP*GENERIC001~", sourceBytes),
		"SE*6*0001~",
		fmt.Sprintf("GE*1*%s~", stamp),
		fmt.Sprintf("IEA*1*%s~", stamp),
	}, "\n")
}
