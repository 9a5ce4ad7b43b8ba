package mastplan

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const tagKey = "mast"

// Decode maps observation rows onto T using `mast:"column"` struct tags.
// Numeric columns arrive as json.Number and are converted to the field type;
// missing or null columns leave the field at its zero value.
func Decode[T any](rows []map[string]any) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          tagKey,
			WeaklyTypedInput: true,
			Result:           &out[i],
		})
		if err != nil {
			return nil, fmt.Errorf("mastplan: decoder for %T: %w", out[i], err)
		}
		if err := dec.Decode(dropNulls(row)); err != nil {
			return nil, fmt.Errorf("mastplan: decode row %d: %w", i, err)
		}
	}
	return out, nil
}

func dropNulls(row map[string]any) map[string]any {
	clean := make(map[string]any, len(row))
	for k, v := range row {
		if v != nil {
			clean[k] = v
		}
	}
	return clean
}
