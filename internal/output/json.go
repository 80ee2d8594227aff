package output

import (
	"encoding/json"
	"io"

	"github.com/asjarre/hardeneks/internal/model"
)

func WriteJSON(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
