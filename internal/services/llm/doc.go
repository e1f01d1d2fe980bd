// Package llm implements the remote attention-analysis collaborator: the
// chat-completions client, the JSON payload decoding, and the gate policy
// deciding when a remote call is worth its cost.
package llm
