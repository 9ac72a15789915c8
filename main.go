// SPDX-License-Identifier: MPL-2.0

// Command structkit scaffolds directory trees from an indented structure file.
package main

import cmd "github.com/structkit/structkit/cmd/structkit"

func main() {
	cmd.Execute()
}
