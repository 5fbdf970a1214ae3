package export

import "github.com/KevinKickass/OpenSequenceCore/internal/document"

// Bit-pair codes written into condition cells.
const (
	CodeActive   = "10"
	CodeInactive = "01"
	CodeAny      = "00"

	FlagSet   = "10"
	FlagUnset = ""

	SymbolAND = "&"
	SymbolOR  = "|"
)

func EncodeState(s document.ElementState) string {
	switch s {
	case document.StateActive:
		return CodeActive
	case document.StateInactive:
		return CodeInactive
	default:
		return CodeAny
	}
}

func EncodeFlag(set bool) string {
	if set {
		return FlagSet
	}
	return FlagUnset
}

func EncodeOperator(op document.Operator) string {
	if op == document.OperatorOR {
		return SymbolOR
	}
	return SymbolAND
}
