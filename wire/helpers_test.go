package wire_test

import (
	"github.com/nabbar/wirerpc/ident"
	"github.com/nabbar/wirerpc/remoteerror"
)

func mustIdent(s string) ident.Identifier { return ident.MustParse(s) }

func remoteErrorFixture(typ, desc string) remoteerror.RemoteError {
	return remoteerror.RemoteError{Type: mustIdent(typ), Description: desc}
}
