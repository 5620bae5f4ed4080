// Package commands defines the streamchat CLI.
//
// Commands
//
//   - server <port>        Listen on 0.0.0.0:<port> and chat with the first peer that connects
//   - client <address>     Connect to a listening peer and chat
//   - transcript <file>    Print a recorded conversation
//
// The root command loads the optional YAML config, applies flag overrides and
// configures logging before any subcommand runs. Logs go to stderr so they do
// not interleave with the conversation on stdout.
package commands
