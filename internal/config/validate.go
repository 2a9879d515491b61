package config

import (
	"fmt"
	"strings"
)

var validProviders = map[string]bool{
	"":        true,
	"llm":     true,
	"cli":     true,
	"keyword": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for invalid or contradictory values.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		problems = append(problems, "paths.inbox_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		problems = append(problems, "paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		problems = append(problems, "paths.quarantine_dir must be set")
	}
	if c.Paths.InboxDir != "" && c.Paths.InboxDir == c.Paths.LibraryDir {
		problems = append(problems, "paths.inbox_dir and paths.library_dir must differ")
	}
	if c.Paths.QuarantineDir != "" && strings.HasPrefix(c.Paths.QuarantineDir+"/", c.Paths.LibraryDir+"/") {
		problems = append(problems, "paths.quarantine_dir must not live inside paths.library_dir")
	}

	if !validProviders[c.Classifier.Provider] {
		problems = append(problems, fmt.Sprintf("classifier.provider %q is not one of llm, cli, keyword", c.Classifier.Provider))
	}
	if c.Classifier.Provider == "llm" && strings.TrimSpace(c.Classifier.APIKey) == "" {
		problems = append(problems, "classifier.api_key must be set when classifier.provider is llm")
	}
	if c.Classifier.Provider == "cli" && strings.TrimSpace(c.Classifier.CLIBinary) == "" {
		problems = append(problems, "classifier.cli_binary must be set when classifier.provider is cli")
	}

	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
