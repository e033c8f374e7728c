// Package cli wires together the Cobra command tree for the reviewmarks
// binary.
//
// It defines the root command and its subcommands (serve, import, migrate,
// version), loads configuration from the environment, assembles the storage,
// GitHub, and marker adapters around the application workspace, and maps
// failures to process exit codes.
package cli
