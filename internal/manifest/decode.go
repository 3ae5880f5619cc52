package manifest

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

func decodeTOML(r io.Reader, mf *manifestFile) error {
	md, err := toml.NewDecoder(r).Decode(mf)
	if err != nil {
		return fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("toml: unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(r io.Reader, mf *manifestFile) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(mf); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("yaml: empty document")
		}
		return fmt.Errorf("yaml: decode error: %w", err)
	}
	return nil
}
