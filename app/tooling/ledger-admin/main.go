// This program performs administrative tasks against a ledger file while
// the service is offline.
package main

import "github.com/disastersync/ledger/app/tooling/ledger-admin/cmd"

func main() {
	cmd.Execute()
}
