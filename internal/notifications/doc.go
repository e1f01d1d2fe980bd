// Package notifications delivers attention nudges via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Nudger watches fused results and decides when a focus-drop
// or break-suggestion nudge is warranted; the Service only does transport.
//
// Extend this package if you need alternative transports; the coordinator
// depends only on the simple Service interface.
package notifications
