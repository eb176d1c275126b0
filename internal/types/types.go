// =============================================================================
// Suenlace Generator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / csvparser (producers of rows)
//   - bank / invoice (consumers of rows, producers of advisories)
//   - converter and cmd (presentation of advisories and exit codes)
//
// =============================================================================

package types

import (
	"sort"
	"strings"
)

// =============================================================================
// SEMANTIC KEYS
// =============================================================================

// Key is a semantic column name. Spreadsheet mappings bind a Key to a column
// letter; generators read row values by Key.
type Key string

// Semantic keys understood by the generators.
const (
	KeyFechaAsiento    Key = "Fecha Asiento"
	KeyFechaOperacion  Key = "Fecha Operacion"
	KeyFechaExpedicion Key = "Fecha Expedicion"
	KeyFecha           Key = "Fecha"
	KeyConcepto        Key = "Concepto"
	KeyDescripcion     Key = "Descripcion Factura"
	KeyImporte         Key = "Importe"

	KeySerie          Key = "Serie"
	KeyNumero         Key = "Numero Factura"
	KeyNumeroLargoSII Key = "Numero Factura Largo SII"
	KeyNIF            Key = "NIF Cliente Proveedor"
	KeyNombre         Key = "Nombre Cliente Proveedor"
	KeyCuenta         Key = "Cuenta Cliente Proveedor"
	KeyCodigoPostal   Key = "Codigo Postal"
	KeyBase           Key = "Base"
	KeyCuotaIVA       Key = "Cuota IVA"
	KeyPctIVA         Key = "Porcentaje IVA"
	KeyPctRE          Key = "Porcentaje Recargo Equivalencia"
	KeyCuotaRE        Key = "Cuota Recargo Equivalencia"
	KeyPctIRPF        Key = "Porcentaje Retencion IRPF"
	KeyCuotaIRPF      Key = "Cuota Retencion IRPF"
	KeyTotal          Key = "Total"
)

// DateKeys lists the date columns in order of preference.
var DateKeys = []Key{KeyFechaAsiento, KeyFechaOperacion, KeyFechaExpedicion, KeyFecha}

var knownKeys = map[Key]bool{
	KeyFechaAsiento: true, KeyFechaOperacion: true, KeyFechaExpedicion: true, KeyFecha: true,
	KeyConcepto: true, KeyDescripcion: true, KeyImporte: true,
	KeySerie: true, KeyNumero: true, KeyNumeroLargoSII: true, KeyNIF: true, KeyNombre: true,
	KeyCuenta: true, KeyCodigoPostal: true, KeyBase: true, KeyCuotaIVA: true, KeyPctIVA: true,
	KeyPctRE: true, KeyCuotaRE: true, KeyPctIRPF: true, KeyCuotaIRPF: true, KeyTotal: true,
}

// IsKnown reports whether k is one of the semantic keys above.
func IsKnown(k Key) bool {
	return knownKeys[k]
}

// IsDateKey reports whether values under k hold dates.
func IsDateKey(k Key) bool {
	for _, d := range DateKeys {
		if d == k {
			return true
		}
	}
	return false
}

// =============================================================================
// ROW
// =============================================================================

// Row is one input line keyed by semantic name. Columns that are mapped but
// not known as semantic keys are kept as annotations.
type Row struct {
	// Number is the 1-based position of the row among the delivered rows.
	Number int

	// SourceLine is the spreadsheet row the values came from (0 when built in code).
	SourceLine int

	// Values holds mapped cells. A missing key means the column was not mapped.
	Values map[Key]string

	// Annotations holds mapped columns with no semantic meaning for the core.
	Annotations map[string]string

	// UseGenericAccount is set when the template's generic_account_cond matched.
	UseGenericAccount bool
}

// NewRow builds a row from a plain map. Unknown keys become annotations.
func NewRow(number int, values map[string]string) Row {
	r := Row{Number: number, Values: map[Key]string{}, Annotations: map[string]string{}}
	for k, v := range values {
		r.Set(Key(k), v)
	}
	return r
}

// Set stores v under k, routing unknown keys to the annotations.
func (r *Row) Set(k Key, v string) {
	if r.Values == nil {
		r.Values = map[Key]string{}
	}
	if !IsKnown(k) {
		if r.Annotations == nil {
			r.Annotations = map[string]string{}
		}
		r.Annotations[string(k)] = v
		return
	}
	r.Values[k] = v
}

// Get returns the trimmed value stored under k.
func (r Row) Get(k Key) string {
	return strings.TrimSpace(r.Values[k])
}

// First returns the first non-empty value among keys.
func (r Row) First(keys ...Key) string {
	for _, k := range keys {
		if v := r.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether k is mapped, even if its cell is empty.
func (r Row) Has(k Key) bool {
	_, ok := r.Values[k]
	return ok
}

// IsBlank reports whether every semantic cell is empty or NaN.
func (r Row) IsBlank() bool {
	for _, v := range r.Values {
		v = strings.TrimSpace(v)
		if v != "" && !strings.EqualFold(v, "nan") {
			return false
		}
	}
	return true
}

// Keys returns the mapped semantic keys in sorted order.
func (r Row) Keys() []Key {
	keys := make([]Key, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
