// SPDX-License-Identifier: MPL-2.0

package main

import cmd "graft-cli/cmd/graft"

func main() {
	cmd.Execute()
}
