// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/trifoldproj/trifold/cmd"
)

func main() {
	cmd.Execute()
}
