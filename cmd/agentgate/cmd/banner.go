package cmd

import (
	"fmt"
	"io"
)

const banner = `
   __ _  __ _  ___ _ __ | |_ __ _  __ _| |_ ___
  / _` + "`" + ` |/ _` + "`" + ` |/ _ \ '_ \| __/ _` + "`" + ` |/ _` + "`" + ` | __/ _ \
 | (_| | (_| |  __/ | | | || (_| | (_| | ||  __/
  \__,_|\__, |\___|_| |_|\__\__, |\__,_|\__\___|
        |___/               |___/
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Agent Gateway - Version %s\x1b[0m\n\n", Version)
}
