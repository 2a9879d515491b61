package config

import "strings"

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.InboxDir,
		&c.Paths.LibraryDir,
		&c.Paths.LogDir,
		&c.Paths.QuarantineDir,
	}
	for _, p := range paths {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	c.Classifier.Provider = strings.ToLower(strings.TrimSpace(c.Classifier.Provider))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = 120
	}
	if c.Classifier.MaxChars <= 0 {
		c.Classifier.MaxChars = 4000
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		c.Extraction.TimeoutSeconds = 300
	}
	if c.Workflow.InboxPollInterval <= 0 {
		c.Workflow.InboxPollInterval = 5
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = 3
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = 10
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = 10
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = 300
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}

	return nil
}
