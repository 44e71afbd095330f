package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// LoadConf decodes a .yaml, .yml or .json file into out.
func LoadConf(path string, out any) error {
	var unmarshal func([]byte, any) error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		unmarshal = yaml.UnmarshalStrict
	case ".json":
		unmarshal = json.Unmarshal
	default:
		return errors.Errorf("app: load config %s no unmarshal func", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "app: load config %s read file", path)
	}

	if err = unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "app: load config %s unmarshal", path)
	}

	return nil
}
