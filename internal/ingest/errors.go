package ingest

import "fmt"

func errVectorCountMismatch(want, got int) error {
	return fmt.Errorf("embedding result mismatch: expected %d vectors, received %d", want, got)
}
