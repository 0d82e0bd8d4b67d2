package main

import (
	"os"
	"path/filepath"
	"testing"
)

// Test locale detection
func TestDetectSystemLocale(t *testing.T) {
	// Save original env vars
	origLang := os.Getenv("LANG")
	origLcAll := os.Getenv("LC_ALL")
	origLcMessages := os.Getenv("LC_MESSAGES")

	// Restore after test
	defer func() {
		os.Setenv("LANG", origLang)
		os.Setenv("LC_ALL", origLcAll)
		os.Setenv("LC_MESSAGES", origLcMessages)
	}()

	testCases := []struct {
		name           string
		lang           string
		lcAll          string
		lcMessages     string
		expectedLocale string
	}{
		{
			name:           "English US locale from LANG",
			lang:           "en_US.UTF-8",
			lcAll:          "",
			lcMessages:     "",
			expectedLocale: "en_US",
		},
		{
			name:           "Russian locale from LANG",
			lang:           "ru_RU.UTF-8",
			lcAll:          "",
			lcMessages:     "",
			expectedLocale: "ru_RU",
		},
		{
			name:           "LANG takes precedence when both LANG and LC_ALL are set",
			lang:           "en_US.UTF-8",
			lcAll:          "ru_RU.UTF-8",
			lcMessages:     "",
			expectedLocale: "en_US", // Current implementation checks LANG first
		},
		{
			name:           "LC_ALL used when LANG is empty",
			lang:           "",
			lcAll:          "ru_RU.UTF-8",
			lcMessages:     "",
			expectedLocale: "ru_RU",
		},
		{
			name:           "Fallback to en_US when empty",
			lang:           "",
			lcAll:          "",
			lcMessages:     "",
			expectedLocale: "en_US",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Set environment variables
			os.Setenv("LANG", tc.lang)
			os.Setenv("LC_ALL", tc.lcAll)
			os.Setenv("LC_MESSAGES", tc.lcMessages)

			// Detect locale
			detectedLocale := DetectSystemLocale()

			if detectedLocale != tc.expectedLocale {
				t.Errorf("Expected locale '%s', got '%s'", tc.expectedLocale, detectedLocale)
			} else {
				t.Logf("✓ Correctly detected locale: %s", detectedLocale)
			}
		})
	}
}

// Test locale loading
func TestLoadLocale(t *testing.T) {
	t.Run("Load bundled locale", func(t *testing.T) {
		locale, err := LoadLocale("en_US")
		if err != nil {
			t.Fatalf("Failed to load en_US: %v", err)
		}

		if locale.locale != "en_US" {
			t.Errorf("Expected locale 'en_US', got '%s'", locale.locale)
		}

		if locale.translations["banner_title"] != "Course Registration Sniper" {
			t.Errorf("Expected banner title, got '%s'", locale.translations["banner_title"])
		}
	})

	t.Run("Load non-existent locale file", func(t *testing.T) {
		if _, err := LoadLocale("xx_XX"); err == nil {
			t.Error("Expected error for missing locale")
		}
	})

	t.Run("Override file next to the executable", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "test_locale.yaml")
		if err := os.WriteFile(path, []byte("test_key: \"Test Value\"\n"), 0644); err != nil {
			t.Fatalf("Failed to write test locale file: %v", err)
		}

		locale, err := loadLocaleFile(path, "test_locale")
		if err != nil {
			t.Fatalf("Failed to load locale file: %v", err)
		}
		if locale.translations["test_key"] != "Test Value" {
			t.Errorf("Expected 'Test Value', got '%s'", locale.translations["test_key"])
		}

		if err := os.WriteFile(path, []byte("test_key: [unclosed"), 0644); err != nil {
			t.Fatalf("Failed to write test locale file: %v", err)
		}
		if _, err := loadLocaleFile(path, "test_locale"); err == nil {
			t.Error("Expected parse error for malformed locale file")
		}
	})
}

// Test T() translation function
func TestTranslationFunction(t *testing.T) {
	// Set up a test locale
	testLocale := &Locale{
		translations: map[string]string{
			"simple_key":           "Simple Translation",
			"key_with_param":       "Hello, %s!",
			"key_with_two_params":  "User %s has %d messages",
			"run_failed":           "✗ Registration failed after %s: %v",
		},
		locale: "test",
	}

	// Set as global locale
	originalLocale := globalLocale
	globalLocale = testLocale
	defer func() {
		globalLocale = originalLocale
	}()

	testCases := []struct {
		name           string
		key            string
		params         []interface{}
		expectedOutput string
	}{
		{
			name:           "Simple translation",
			key:            "simple_key",
			params:         nil,
			expectedOutput: "Simple Translation",
		},
		{
			name:           "Translation with one parameter",
			key:            "key_with_param",
			params:         []interface{}{"World"},
			expectedOutput: "Hello, World!",
		},
		{
			name:           "Translation with two parameters",
			key:            "key_with_two_params",
			params:         []interface{}{"Alice", 5},
			expectedOutput: "User Alice has 5 messages",
		},
		{
			name:           "Stage failure message",
			key:            "run_failed",
			params:         []interface{}{"Submitted", "timeout"},
			expectedOutput: "✗ Registration failed after Submitted: timeout",
		},
		{
			name:           "Missing key returns key itself",
			key:            "nonexistent_key",
			params:         nil,
			expectedOutput: "nonexistent_key",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := T(tc.key, tc.params...)

			if result != tc.expectedOutput {
				t.Errorf("Expected '%s', got '%s'", tc.expectedOutput, result)
			} else {
				t.Logf("✓ T(%s) = '%s'", tc.key, result)
			}
		})
	}
}

// Test GetLocale function
func TestGetLocale(t *testing.T) {
	// Test with no global locale
	originalLocale := globalLocale
	globalLocale = nil

	result := GetLocale()
	if result != "en_US" {
		t.Errorf("Expected default locale 'en_US' when globalLocale is nil, got '%s'", result)
	}

	// Test with global locale set
	globalLocale = &Locale{
		translations: map[string]string{},
		locale:       "ru_RU",
	}

	result = GetLocale()
	if result != "ru_RU" {
		t.Errorf("Expected locale 'ru_RU', got '%s'", result)
	}

	// Restore
	globalLocale = originalLocale

	t.Log("✓ GetLocale() returns correct locale")
}

// Test that every key the CLI prints exists in the bundled locale
func TestLocalizationKeysExist(t *testing.T) {
	requiredKeys := []string{
		"banner_title",
		"portal_line",
		"browser_profile_line",
		"submit_control_line",
		"dry_run_mode",
		"debug_mode",
		"detached_mode",
		"snipers_not_wired",
		"step_credentials",
		"step_time_sync",
		"time_sync_failed",
		"time_sync_done",
		"step_browser",
		"step_run",
		"courses_header",
		"carts_header",
		"results_header",
		"run_complete",
		"run_dry_complete",
		"run_failed",
		"capture_saved",
		"keeping_browser_open",
		"cancelled",
		"inspect_carts_none",
		"error_macos_permission_header",
		"error_macos_permission_location",
		"error_macos_permission_fix_instructions",
		"error_macos_permission_step1",
		"error_macos_permission_step2",
		"error_macos_permission_step3",
		"error_macos_permission_step4",
		"error_macos_permission_alternative",
		"error_macos_user_data_dir_warning",
	}

	locale, err := LoadLocale("en_US")
	if err != nil {
		t.Fatalf("Failed to load en_US: %v", err)
	}

	for _, key := range requiredKeys {
		if _, ok := locale.translations[key]; !ok {
			t.Errorf("Missing localization key '%s'", key)
		}
	}
}

// Test T() function with nil global locale
func TestTranslationWithNilGlobalLocale(t *testing.T) {
	// Save original
	originalLocale := globalLocale
	globalLocale = nil
	defer func() {
		globalLocale = originalLocale
	}()

	// T() should return the key when globalLocale is nil
	result := T("test_key")
	if result != "test_key" {
		t.Errorf("Expected T() to return key when globalLocale is nil, got '%s'", result)
	} else {
		t.Log("✓ T() returns key when globalLocale is nil")
	}
}

// Test locale fallback behavior
func TestLocaleFallback(t *testing.T) {
	origLang := os.Getenv("LANG")
	originalLocale := globalLocale
	defer func() {
		os.Setenv("LANG", origLang)
		globalLocale = originalLocale
	}()

	os.Setenv("LANG", "invalid_locale.UTF-8")
	if err := InitLocale(); err != nil {
		t.Fatalf("InitLocale failed: %v", err)
	}

	if GetLocale() != "en_US" {
		t.Errorf("Expected fallback to 'en_US', got '%s'", GetLocale())
	}
	if T("cancelled") != "Cancelled." {
		t.Errorf("Expected fallback translations, got '%s'", T("cancelled"))
	}
}
