// =============================================================================
// Suenlace Generator - Record Renderers
// =============================================================================
//
// A posting file is a stream of 512-byte latin-1 records, each terminated by
// CR LF at positions 511-512. Three record kinds share one envelope:
//
//   | Kind            | Column 15 | Built from      |
//   |-----------------|-----------|-----------------|
//   | Bank entry      | '0'       | BankLine        |
//   | Invoice header  | '1' / '2' | InvoiceHeader   |
//   | Invoice detail  | '9'       | InvoiceDetail   |
//
// Offsets below are 1-based and inclusive, as in the downstream package's
// documentation.
//
// =============================================================================

package records

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/codec"
	"github.com/shopspring/decimal"
)

// Size is the length of every record, CR LF included.
const Size = 512

// Envelope bytes shared by every record kind.
const (
	FormatMarker    = '5'
	CurrencyEuro    = 'E'
	GeneratedNo     = 'N'
	KindCharBank    = '0'
	KindCharDetail  = '9'
	DetailSubtype   = "01"
	DetailTaxForm   = "01"
	HeaderInvoiceTy = '1'
)

// Kind discriminates the Record variant.
type Kind int

const (
	KindBank Kind = iota
	KindInvoiceHeader
	KindInvoiceDetail
)

func (k Kind) String() string {
	switch k {
	case KindBank:
		return "bank"
	case KindInvoiceHeader:
		return "invoice-header"
	case KindInvoiceDetail:
		return "invoice-detail"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Side is the debit/credit side of a bank posting line.
type Side byte

const (
	Debit  Side = 'D'
	Credit Side = 'H'
)

// Marker brackets an accounting entry.
type Marker byte

const (
	Initial Marker = 'I'
	Middle  Marker = 'M'
	Unique  Marker = 'U'
)

// Book tells sales invoices from purchase invoices.
type Book byte

const (
	Sales     Book = '1'
	Purchases Book = '2'
)

// Context carries the per-batch values every record needs.
type Context struct {
	CompanyCode string
	Ndig        int
}

// BankLine is one side of a bank movement.
type BankLine struct {
	Date        string // YYYYMMDD
	Account     string // digits, fitted by Render
	Side        Side
	Amount      decimal.Decimal // non-negative
	Description string
	Marker      Marker
}

// InvoiceHeader opens an invoice.
type InvoiceHeader struct {
	Book          Book
	Identity      string
	Date          string
	Account       string
	Name          string
	TaxID         string
	PostalCode    string
	Reference     string
	Description   string
	LongSII       string
	OperationDate string
	IssueDate     string
	Total         decimal.Decimal
}

// InvoiceDetail is one VAT-rate line of an invoice.
type InvoiceDetail struct {
	Book        Book
	Identity    string
	Date        string
	Account     string
	Reference   string
	Description string
	Subtype     string
	Base        decimal.Decimal
	PctVAT      decimal.Decimal
	CuotaVAT    decimal.Decimal
	PctRE       decimal.Decimal
	CuotaRE     decimal.Decimal
	PctIRPF     decimal.Decimal
	CuotaIRPF   decimal.Decimal
	VATAccount  string
	REAccount   string
	IRPFAccount string
	Last        bool
}

// Record is the tagged variant rendered into one 512-byte line. Exactly one
// of Bank, Header or Detail is set, according to Kind.
type Record struct {
	Kind   Kind
	Row    int
	Bank   *BankLine
	Header *InvoiceHeader
	Detail *InvoiceDetail
}

// Bank wraps a BankLine.
func Bank(row int, l BankLine) Record {
	return Record{Kind: KindBank, Row: row, Bank: &l}
}

// Header wraps an InvoiceHeader.
func Header(row int, h InvoiceHeader) Record {
	return Record{Kind: KindInvoiceHeader, Row: row, Header: &h}
}

// Detail wraps an InvoiceDetail.
func Detail(row int, d InvoiceDetail) Record {
	return Record{Kind: KindInvoiceDetail, Row: row, Detail: &d}
}

// Date returns the accounting date of the record.
func (r Record) Date() string {
	switch r.Kind {
	case KindBank:
		return r.Bank.Date
	case KindInvoiceHeader:
		return r.Header.Date
	default:
		return r.Detail.Date
	}
}

// GroupKey returns the entry identity of the record: (date, description) for
// bank lines and the invoice identity for invoice records.
func (r Record) GroupKey() string {
	switch r.Kind {
	case KindBank:
		return r.Bank.Date + "|" + strings.TrimSpace(r.Bank.Description)
	case KindInvoiceHeader:
		return r.Header.Identity
	default:
		return r.Detail.Identity
	}
}

// Render produces the 512-byte line. The second result reports whether any
// text field needed latin-1 substitution.
func (r Record) Render(ctx Context) ([]byte, bool) {
	switch r.Kind {
	case KindBank:
		return renderBank(ctx, r.Bank)
	case KindInvoiceHeader:
		return renderHeader(ctx, r.Header)
	case KindInvoiceDetail:
		return renderDetail(ctx, r.Detail)
	}
	panic(fmt.Sprintf("records: unknown kind %v", r.Kind))
}

// Check verifies the envelope of a rendered line.
func Check(line []byte) error {
	switch {
	case len(line) != Size:
		return fmt.Errorf("record length %d, want %d", len(line), Size)
	case line[0] != FormatMarker:
		return fmt.Errorf("format marker %q", line[0])
	case line[508] != CurrencyEuro || line[509] != GeneratedNo:
		return fmt.Errorf("trailer %q", line[508:510])
	case line[510] != '\r' || line[511] != '\n':
		return fmt.Errorf("record is not CR LF terminated")
	}
	return nil
}

// Field returns positions from..to (1-based, inclusive) of a rendered line.
func Field(line []byte, from, to int) string {
	return string(line[from-1 : to])
}

// ---------------------------------------------------------------------------
// Fixed-width buffer
// ---------------------------------------------------------------------------

type buffer struct {
	b           []byte
	substituted bool
}

func newBuffer(ctx Context, date string, kind byte) *buffer {
	b := &buffer{b: []byte(strings.Repeat(" ", Size))}
	b.b[0] = FormatMarker
	b.put(2, 6, codec.Empresa5(ctx.CompanyCode))
	b.put(7, 14, date)
	b.b[14] = kind
	b.b[508] = CurrencyEuro
	b.b[509] = GeneratedNo
	b.b[510] = '\r'
	b.b[511] = '\n'
	return b
}

// put writes value into positions from..to (1-based, inclusive).
func (b *buffer) put(from, to int, value string) {
	if codec.Put(b.b, from-1, to, value) {
		b.substituted = true
	}
}

func (b *buffer) char(pos int, c byte) {
	b.b[pos-1] = c
}

func (b *buffer) account(from int, raw string, ndig int) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	b.put(from, from+codec.AccountWidth-1, codec.Account12(raw, ndig))
}
