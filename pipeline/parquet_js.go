//go:build js

package pipeline

import (
	"fmt"

	onmove "github.com/lucasjlepore/onmove-export"
)

func marshalParquet(_ []onmove.Sample) ([]byte, error) {
	return nil, fmt.Errorf("%w: parquet output is not built for js", ErrUnknownFormat)
}
