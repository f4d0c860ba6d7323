// Command vaultctl deploys and operates the xvault contracts on a local
// deterministic ledger.
package main

import "github.com/mesh-intelligence/xvault/internal/cli"

func main() {
	cli.Execute()
}
