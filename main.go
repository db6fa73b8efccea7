// =============================================================================
// Sales Loader - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Sales Loader CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   salesloader load        - Load a workbook or CSV export into the database
//   salesloader inspect     - Show how each sheet would be loaded
//   salesloader config show - Print the effective configuration
//   salesloader version     - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/salesloader/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
