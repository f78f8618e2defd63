// Package bot contains the chat-command engine: it keeps the participant
// registry in sync with the player store, parses !-prefixed chat lines,
// routes them to command handlers, and fans the outcomes out to the chat
// reply channel and the overlay feed.
//
// The entrypoint is Service.Run: it connects the Twitch IRC client for the
// configured channel and blocks until the context is cancelled. Every
// inbound message is handled as an independent unit of work, so a slow
// collaborator (a hung chatters fetch, a busy database) only stalls the
// command that triggered it.
//
// Credentials: the IRC client requires a bot username and an OAuth token
// with chat:read/chat:edit scopes. With SILENT_BOT_MODE=1 (or "true") chat
// replies are written to the log instead of the network; feed entries and
// balance mutations are unaffected.
package bot
