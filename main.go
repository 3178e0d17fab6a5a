// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/npmverified/npm-verified/cmd/npm-verified"

func main() {
	cmd.Execute()
}
