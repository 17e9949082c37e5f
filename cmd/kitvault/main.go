// Package main kitvault 入口.
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/kitvault/pkg/cmd"
)

//	@title			kitvault import API
//	@version		1.0
//	@description	Construction kit import API: presigned uploads, content metadata and default full loop.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
