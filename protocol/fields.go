package protocol

import (
	"errors"
	"fmt"
)

var (
	errEmptyLine  = errors.New("empty line")
	errUnknownTag = errors.New("unrecognized tag")
)

func errFieldCount(want, got int) error {
	return fmt.Errorf("expected %d fields, got %d", want, got)
}
