// SPDX-License-Identifier: MPL-2.0

package main

import cmd "bookforge/cmd/bookforge"

func main() {
	cmd.Execute()
}
