// Package config registers rpdl's settings and loads them with viper from
// defaults, the config file and RPDL_* environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/filesystem"
	"github.com/rpdl/rpdl/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer turns a key into the suffix of its environment variable.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads the settings. A missing config file is not an error.
func Setup() error {
	viper.SetFs(filesystem.API())
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, name := range EnvExposed {
		if err := viper.BindEnv(name); err != nil {
			return err
		}
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	err := viper.ReadInConfig()
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return nil
	}
	return err
}
