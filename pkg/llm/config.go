package llm

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
)

// GetConfigFromViper decodes the model configuration from viper and fills
// in defaults.
func GetConfigFromViper() (llmtypes.Config, error) {
	config, err := DecodeConfig(viper.AllSettings())
	if err != nil {
		return config, err
	}
	return ApplyDefaults(config), nil
}

// DecodeConfig decodes raw settings into a Config. Values set through the
// environment arrive as strings, so input is weakly typed.
func DecodeConfig(settings map[string]any) (llmtypes.Config, error) {
	var config llmtypes.Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return config, errors.Wrap(err, "failed to create config decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return config, errors.Wrap(err, "failed to unmarshal configuration")
	}
	return config, nil
}
