// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and becomes a no-op when notifications are disabled. Event
// categories (filed, duplicates, errors) can be toggled individually so
// workflow code can emit consistently without re-checking configuration.
//
// Workflow code depends only on the Service interface.
package notifications
