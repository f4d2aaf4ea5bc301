package main

import (
	"os"

	"github.com/mariellemanlulu/irida-uploader/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
