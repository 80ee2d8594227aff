package output

import (
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/asjarre/hardeneks/internal/model"
)

// WriteYAML renders the report with the same field names as WriteJSON.
func WriteYAML(w io.Writer, r *model.Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}
