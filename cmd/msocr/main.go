// Command msocr converts PDF documents into structured text.
package main

import (
	"fmt"
	"os"

	"github.com/tsawler/msocr/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
