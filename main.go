// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/spmkit/spm/cmd/spm"

func main() {
	cmd.Execute()
}
