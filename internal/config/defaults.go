package config

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:      "~/Documents/docket/inbox",
			LibraryDir:    "~/Documents/docket/library",
			LogDir:        "~/.local/share/docket/logs",
			QuarantineDir: "~/Documents/docket/quarantine",
		},
		Classifier: Classifier{
			Provider:       "",
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			CLIBinary:      "claude",
			TimeoutSeconds: 120,
			MaxChars:       4000,
		},
		Extraction: Extraction{
			PDFTool:        "pdftotext",
			OCRTool:        "tesseract",
			TimeoutSeconds: 300,
		},
		Library: Library{
			RemoveDuplicateInbox: true,
		},
		Workflow: Workflow{
			InboxPollInterval:  5,
			QueuePollInterval:  3,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  10,
			HeartbeatTimeout:   300,
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Filed:          true,
			Duplicates:     true,
			Errors:         true,
		},
	}
}
