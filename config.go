package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/utilitywarehouse/lohr/settings"
	"gopkg.in/yaml.v3"
)

// configFileName is the name of the config file looked up in home dir
const configFileName = "lohr-config.yaml"

// defaultConfigPath returns path of the config file inside home dir
func defaultConfigPath(home string) string {
	return filepath.Join(home, configFileName)
}

// parseConfigFile reads and validates the config document. missing file is
// not an error, all settings are left empty in that case.
func parseConfigFile(path string) (*settings.Settings, error) {
	yamlFile, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("config file not found, using default settings", "path", path)
		return &settings.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	err = validateConfig(yamlFile)
	if err != nil {
		return nil, err
	}

	conf := &settings.Settings{}
	err = yaml.Unmarshal(yamlFile, conf)
	if err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func validateConfig(yamlData []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return err
	}

	// empty document
	if raw == nil {
		return nil
	}

	// check config sections for unexpected keys
	allowedSettings := getAllowedKeys(settings.Settings{})
	if key := findUnexpectedKey(raw, allowedSettings); key != "" {
		return fmt.Errorf("unexpected key: .%v", key)
	}

	// check "auth" section
	if authSection, ok := raw["auth"]; ok && authSection != nil {
		authMap, ok := authSection.(map[string]interface{})
		if !ok {
			return fmt.Errorf("auth config section is not valid")
		}
		allowedAuthKeys := getAllowedKeys(settings.Auth{})
		if key := findUnexpectedKey(authMap, allowedAuthKeys); key != "" {
			return fmt.Errorf("unexpected key: .auth.%v", key)
		}
	}

	// lists must contain only strings
	for _, section := range []string{"default_remotes", "additional_remotes", "blacklist"} {
		list, ok := raw[section]
		if !ok || list == nil {
			continue
		}
		items, ok := list.([]interface{})
		if !ok {
			return fmt.Errorf("%s config section must be a list", section)
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("%s[%d] must be a string", section, i)
			}
		}
	}

	return nil
}

// getAllowedKeys retrieves a list of allowed keys from the specified struct
func getAllowedKeys(config interface{}) []string {
	var allowedKeys []string
	val := reflect.ValueOf(config)
	typ := reflect.TypeOf(config)

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		yamlTag, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if yamlTag != "" && yamlTag != "-" {
			allowedKeys = append(allowedKeys, yamlTag)
		}
	}
	return allowedKeys
}

func findUnexpectedKey(raw interface{}, allowedKeys []string) string {
	for key := range raw.(map[string]interface{}) {
		if !slices.Contains(allowedKeys, key) {
			return key
		}
	}

	return ""
}
