package chess

import "errors"

// ErrInvalidEncoding reports a malformed FEN string, square or move notation.
var ErrInvalidEncoding = errors.New("invalid encoding")
