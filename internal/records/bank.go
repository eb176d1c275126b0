package records

import "github.com/ginjaninja78/suenlace/internal/codec"

// Bank entry layout (kind '0').
//
//	16-27  account12
//	28-57  account description (spaces)
//	58     D / H
//	59-68  reference (spaces)
//	69     I / M / U
//	70-99  entry description
//	100-113 amount14
//	251    payroll flag (space)
//	252    analytical flag (space)
func renderBank(ctx Context, l *BankLine) ([]byte, bool) {
	b := newBuffer(ctx, l.Date, KindCharBank)
	b.put(16, 27, codec.Account12(l.Account, ctx.Ndig))
	b.char(58, byte(l.Side))
	b.char(69, byte(l.Marker))
	b.put(70, 99, l.Description)
	b.put(100, 113, codec.Amount14(l.Amount))
	return b.b, b.substituted
}
