package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lang/*.yaml
var bundledLocales embed.FS

type Locale struct {
	translations map[string]string
	locale       string
}

var globalLocale *Locale

// InitLocale initializes the global locale system
func InitLocale() error {
	locale := DetectSystemLocale()

	l, err := LoadLocale(locale)
	if err != nil {
		// Fallback to English
		l, err = LoadLocale("en_US")
		if err != nil {
			return fmt.Errorf("failed to load fallback locale en_US: %w", err)
		}
	}

	globalLocale = l
	return nil
}

// DetectSystemLocale detects the user's system locale
func DetectSystemLocale() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		// Typically like "en_US.UTF-8"
		if locale := os.Getenv(env); locale != "" {
			if name := strings.Split(locale, ".")[0]; name != "" && name != "C" && name != "POSIX" {
				return name
			}
		}
	}

	if runtime.GOOS == "windows" {
		if locale := os.Getenv("LANG"); locale != "" {
			return locale
		}
	}

	return "en_US"
}

// LoadLocale loads lang/<locale>.yaml from next to the executable, falling
// back to the copy built into the binary.
func LoadLocale(locale string) (*Locale, error) {
	if exePath, err := os.Executable(); err == nil {
		l, err := loadLocaleFile(filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml"), locale)
		if err == nil {
			return l, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	data, err := bundledLocales.ReadFile("lang/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no locale %s: %w", locale, err)
	}
	return parseLocale(data, locale)
}

func loadLocaleFile(path, locale string) (*Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := parseLocale(data, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to parse locale file %s: %w", path, err)
	}
	return l, nil
}

func parseLocale(data []byte, locale string) (*Locale, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, err
	}
	return &Locale{translations: translations, locale: locale}, nil
}

// T translates a key with optional fmt parameters. Unknown keys come back
// unchanged.
func T(key string, params ...interface{}) string {
	if globalLocale == nil {
		return key
	}

	translation, ok := globalLocale.translations[key]
	if !ok {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(translation, params...)
	}

	return translation
}

// GetLocale returns the current locale code (e.g., "en_US")
func GetLocale() string {
	if globalLocale == nil {
		return "en_US"
	}
	return globalLocale.locale
}
