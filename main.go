// =============================================================================
// Revenue XML - Main Entry Point
// =============================================================================
//
// USAGE:
//   revxml days FILE        - List the days a revenue workbook covers
//   revxml generate FILE    - Generate accounting import files
//   revxml validate         - Check the settings file
//   revxml serve            - Serve the local JSON API
//   revxml version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Extraction, document synthesis, envelopes, output naming
//   - pkg/       : Output file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/revenue-xml/cmd"
)

func main() {
	cmd.Execute()
}
