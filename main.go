// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/m3bridge/cmd/m3bridge"

func main() {
	cmd.Execute()
}
