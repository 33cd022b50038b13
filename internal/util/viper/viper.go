package viper

import (
	"strings"

	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/util"
	v "github.com/spf13/viper"
)

// InitializeDefaultViper initializes a viper instance with default values and a path to a file
// If the file does not exist, it will be created with the default values
func InitializeDefaultViper(defaultValues map[string]any, path string) (*v.Viper, error) {
	if err := util.InitDir(path, 0o755); err != nil {
		return nil, err
	}

	rv := NewViper(path)

	if len(rv.AllSettings()) == 0 {
		// nothing was loaded, seed the file with the defaults
		if err := rv.MergeConfigMap(defaultValues); err != nil {
			return nil, err
		}
		if err := rv.WriteConfig(); err != nil {
			return nil, err
		}
	}

	return rv, nil
}

func configure(rv *v.Viper, path string) {
	rv.SetConfigFile(path)
	ConfigureEnvVars(rv, meta.EnvPrefix)
}

func NewViperE(path string) (*v.Viper, error) {
	rv := v.New()
	configure(rv, path)
	if err := rv.ReadInConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

func NewViper(path string) *v.Viper {
	rv := v.New()
	configure(rv, path)
	_ = rv.ReadInConfig()
	return rv
}

func PersistViper(rv *v.Viper) error {
	return rv.WriteConfig()
}

// ConfigureEnvVars makes rv resolve keys from environment variables that
// start with prefix, using the same key replacer as the main config.
func ConfigureEnvVars(rv *v.Viper, prefix string) {
	rv.AutomaticEnv()
	rv.SetEnvPrefix(prefix)
	rv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}
